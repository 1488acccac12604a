package result

import (
	"encoding/xml"
	"strings"
	"testing"
)

func TestHasChangedMatchesChanged(t *testing.T) {
	testCases := []struct {
		name     string
		snapshot Snapshot
		baseline Baseline
		want     bool
	}{
		{
			name:     "Both empty",
			snapshot: Snapshot{},
			baseline: Baseline{},
			want:     false,
		},
		{
			name:     "Identical values",
			snapshot: Snapshot{Grade: StringValue("80"), Outcome: StringValue("Pass")},
			baseline: Baseline{Grade: StringValue("80"), Outcome: StringValue("Pass")},
			want:     false,
		},
		{
			name:     "Numeric string vs int rendering",
			snapshot: Snapshot{ProgressPercent: IntValue(80)},
			baseline: Baseline{ProgressPercent: StringValue("80")},
			want:     false,
		},
		{
			name:     "Numeric normalization with decimals",
			snapshot: Snapshot{Grade: StringValue("80.0")},
			baseline: Baseline{Grade: StringValue("80")},
			want:     false,
		},
		{
			name:     "Unset vs empty string differ",
			snapshot: Snapshot{Outcome: StringValue("")},
			baseline: Baseline{},
			want:     true,
		},
		{
			name:     "One field changed",
			snapshot: Snapshot{ProgressStatus: StringValue("Completed")},
			baseline: Baseline{ProgressStatus: StringValue("In progress")},
			want:     true,
		},
		{
			name:     "Exact string compare for status",
			snapshot: Snapshot{ProgressStatus: StringValue("In Progress")},
			baseline: Baseline{ProgressStatus: StringValue("In progress")},
			want:     true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := HasChanged(&tc.snapshot, &tc.baseline)
			if got != tc.want {
				t.Errorf("HasChanged() = %v, want %v", got, tc.want)
			}

			changed := Changed(&tc.snapshot, &tc.baseline)
			if (len(changed) > 0) != got {
				t.Errorf("HasChanged() = %v but Changed() returned %d fields", got, len(changed))
			}
		})
	}
}

func TestChangedOrderAndContent(t *testing.T) {
	snap := Snapshot{
		Grade:           StringValue("85"),
		Outcome:         StringValue("Pass"),
		LastActivity:    EpochValue(1700000000),
		ProgressStatus:  StringValue("Completed"),
		ProgressPercent: IntValue(100),
	}
	base := Baseline{
		Grade:          StringValue("70"),
		Outcome:        StringValue("Fail"),
		ProgressStatus: StringValue("In progress"),
	}

	changed := Changed(&snap, &base)

	wantOrder := []string{"grade", "outcome", "lastactivity", "progressstatus", "progresspercent"}
	if len(changed) != len(wantOrder) {
		t.Fatalf("Changed() returned %d fields, want %d", len(changed), len(wantOrder))
	}
	for i, fc := range changed {
		if fc.Name != wantOrder[i] {
			t.Errorf("Changed()[%d].Name = %q, want %q", i, fc.Name, wantOrder[i])
		}
	}

	if changed[0].Old.Raw() != "70" || changed[0].New.Raw() != "85" {
		t.Errorf("grade change = %q -> %q, want 70 -> 85", changed[0].Old.Raw(), changed[0].New.Raw())
	}
}

func TestExportPatchEmptyWhenUnchanged(t *testing.T) {
	snap := Snapshot{
		Grade:           StringValue("80"),
		Outcome:         StringValue("Pass"),
		LastActivity:    EpochValue(1700000000),
		ProgressStatus:  StringValue("Completed"),
		ProgressPercent: IntValue(100),
	}
	base := Baseline{
		Grade:           StringValue("80"),
		Outcome:         StringValue("Pass"),
		LastActivity:    StringValue("1700000000"),
		ProgressStatus:  StringValue("Completed"),
		ProgressPercent: StringValue("100"),
	}

	patch, err := ExportPatch(&snap, &base)
	if err != nil {
		t.Fatalf("ExportPatch() error = %v", err)
	}
	if patch != "" {
		t.Errorf("ExportPatch() = %q, want empty string for identical fields", patch)
	}
}

func TestExportPatchAllAdds(t *testing.T) {
	snap := Snapshot{
		Grade:           StringValue("80"),
		Outcome:         StringValue("Pass"),
		LastActivity:    EpochValue(1700000000),
		ProgressStatus:  StringValue("In progress"),
		ProgressPercent: IntValue(40),
	}
	base := Baseline{}

	patch, err := ExportPatch(&snap, &base)
	if err != nil {
		t.Fatalf("ExportPatch() error = %v", err)
	}

	want := xml.Header +
		`<diff>` +
		`<add sel="Registration"><Grade>80</Grade></add>` +
		`<add sel="Registration"><Outcome>Pass</Outcome></add>` +
		`<add sel="Registration"><LastActivityDateTime>2023-11-14T22:13:20.000+00:00</LastActivityDateTime></add>` +
		`<add sel="Registration"><ProgressStatus>In progress</ProgressStatus></add>` +
		`<add sel="Registration"><ProgressPercent>40</ProgressPercent></add>` +
		`</diff>`

	if patch != want {
		t.Errorf("ExportPatch() =\n%s\nwant\n%s", patch, want)
	}
}

func TestExportPatchReplaces(t *testing.T) {
	snap := Snapshot{
		ProgressStatus:  StringValue("Completed"),
		ProgressPercent: IntValue(100),
	}
	base := Baseline{
		ProgressStatus:  StringValue("In progress"),
		ProgressPercent: StringValue("40"),
	}

	patch, err := ExportPatch(&snap, &base)
	if err != nil {
		t.Fatalf("ExportPatch() error = %v", err)
	}

	if !strings.Contains(patch, `<replace sel="Registration/ProgressStatus/text()[1]">Completed</replace>`) {
		t.Errorf("patch missing ProgressStatus replace:\n%s", patch)
	}
	if !strings.Contains(patch, `<replace sel="Registration/ProgressPercent/text()[1]">100</replace>`) {
		t.Errorf("patch missing ProgressPercent replace:\n%s", patch)
	}
	if strings.Contains(patch, "<add") {
		t.Errorf("patch should contain only replace operations:\n%s", patch)
	}
}

func TestExportPatchPercentZeroSuppressed(t *testing.T) {
	// Snapshot percent 0 against an unset baseline never emits an add.
	snap := Snapshot{ProgressPercent: IntValue(0)}
	base := Baseline{}

	patch, err := ExportPatch(&snap, &base)
	if err != nil {
		t.Fatalf("ExportPatch() error = %v", err)
	}
	// The field did change (unset -> 0) so a document is produced, but it
	// carries no operations.
	if patch == "" {
		t.Fatal("ExportPatch() = empty, want a document (the field did change)")
	}
	if strings.Contains(patch, "<add") || strings.Contains(patch, "<replace") {
		t.Errorf("patch should contain no operations for a transition to percent 0:\n%s", patch)
	}
}

func TestExportPatchPercentRegressionToZeroSuppressed(t *testing.T) {
	// A replace to percent 0 is suppressed as well; the TMS keeps the old
	// value. Deployed behavior, kept on purpose.
	snap := Snapshot{ProgressPercent: IntValue(0)}
	base := Baseline{ProgressPercent: StringValue("40")}

	patch, err := ExportPatch(&snap, &base)
	if err != nil {
		t.Fatalf("ExportPatch() error = %v", err)
	}
	if strings.Contains(patch, "<replace") || strings.Contains(patch, "<add") {
		t.Errorf("regression to percent 0 must not emit operations:\n%s", patch)
	}
}

func TestExportPatchPercentAdd(t *testing.T) {
	snap := Snapshot{ProgressPercent: IntValue(55)}
	base := Baseline{}

	patch, err := ExportPatch(&snap, &base)
	if err != nil {
		t.Fatalf("ExportPatch() error = %v", err)
	}
	if !strings.Contains(patch, `<add sel="Registration"><ProgressPercent>55</ProgressPercent></add>`) {
		t.Errorf("patch missing ProgressPercent add:\n%s", patch)
	}
}

func TestExportPatchIdempotent(t *testing.T) {
	snap := Snapshot{
		Grade:          StringValue("62.50"),
		Outcome:        StringValue("Fail"),
		ProgressStatus: StringValue("In progress"),
	}
	base := Baseline{
		Grade: StringValue("55"),
	}

	first, err := ExportPatch(&snap, &base)
	if err != nil {
		t.Fatalf("ExportPatch() error = %v", err)
	}
	second, err := ExportPatch(&snap, &base)
	if err != nil {
		t.Fatalf("ExportPatch() second call error = %v", err)
	}
	if first != second {
		t.Errorf("ExportPatch() not byte-identical across calls:\n%s\nvs\n%s", first, second)
	}
}

// TestExportPatchRoundTrip applies the emitted operations back onto the
// baseline's fields and checks the result matches the snapshot's formatted
// values, leaving unchanged fields untouched.
func TestExportPatchRoundTrip(t *testing.T) {
	snap := Snapshot{
		Grade:           StringValue("91"),
		Outcome:         StringValue("Pass"),
		LastActivity:    EpochValue(1700000000),
		ProgressStatus:  StringValue("Completed"),
		ProgressPercent: IntValue(100),
	}
	base := Baseline{
		Grade:          StringValue("91"),
		Outcome:        StringValue("Pass"),
		ProgressStatus: StringValue("In progress"),
	}

	patch, err := ExportPatch(&snap, &base)
	if err != nil {
		t.Fatalf("ExportPatch() error = %v", err)
	}

	fields := applyPatch(t, patch, map[string]string{
		"Grade":          "91",
		"Outcome":        "Pass",
		"ProgressStatus": "In progress",
	})

	want := map[string]string{
		"Grade":                "91",
		"Outcome":              "Pass",
		"LastActivityDateTime": "2023-11-14T22:13:20.000+00:00",
		"ProgressStatus":       "Completed",
		"ProgressPercent":      "100",
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("after patch, %s = %q, want %q", k, fields[k], v)
		}
	}
}

type patchedOp struct {
	XMLName xml.Name
	Sel     string `xml:"sel,attr"`
	Inner   string `xml:",innerxml"`
}

type patchedDoc struct {
	XMLName xml.Name    `xml:"diff"`
	Ops     []patchedOp `xml:",any"`
}

// applyPatch interprets the add/replace operations against a wire-name keyed
// field map, the way the TMS applies them to a Registration element.
func applyPatch(t *testing.T, patch string, fields map[string]string) map[string]string {
	t.Helper()

	var doc patchedDoc
	if err := xml.Unmarshal([]byte(patch), &doc); err != nil {
		t.Fatalf("patch is not valid XML: %v\n%s", err, patch)
	}

	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}

	for _, op := range doc.Ops {
		switch op.XMLName.Local {
		case "add":
			if op.Sel != "Registration" {
				t.Errorf("add sel = %q, want Registration", op.Sel)
			}
			var child struct {
				XMLName xml.Name
				Value   string `xml:",chardata"`
			}
			if err := xml.Unmarshal([]byte(op.Inner), &child); err != nil {
				t.Fatalf("add child is not valid XML: %v", err)
			}
			if _, exists := out[child.XMLName.Local]; exists {
				t.Errorf("add targets existing field %s", child.XMLName.Local)
			}
			out[child.XMLName.Local] = child.Value
		case "replace":
			name := strings.TrimSuffix(strings.TrimPrefix(op.Sel, "Registration/"), "/text()[1]")
			if _, exists := out[name]; !exists {
				t.Errorf("replace targets absent field %s", name)
			}
			out[name] = op.Inner
		default:
			t.Errorf("unexpected operation %q", op.XMLName.Local)
		}
	}
	return out
}
