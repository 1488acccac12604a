package result

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// FieldChange reports one tracked field whose snapshot value differs from the
// baseline.
type FieldChange struct {
	Name string
	Old  Value
	New  Value
}

// HasChanged reports whether any tracked field differs between snapshot and
// baseline. Unset and empty/zero are distinct states; numeric fields compare
// by normalized numeric value.
func HasChanged(s *Snapshot, b *Baseline) bool {
	return len(Changed(s, b)) > 0
}

// Changed returns the tracked fields whose snapshot value differs from the
// baseline, in the fixed field order.
func Changed(s *Snapshot, b *Baseline) []FieldChange {
	var out []FieldChange
	for _, f := range trackedFields {
		sv, bv := f.snap(s), f.base(b)
		if !sv.equal(bv, f.numeric) {
			out = append(out, FieldChange{Name: f.name, Old: bv, New: sv})
		}
	}
	return out
}

// registrationSel is the parent element add operations target in the TMS
// registration document.
const registrationSel = "Registration"

type addOp struct {
	XMLName xml.Name `xml:"add"`
	Sel     string   `xml:"sel,attr"`
	Field   fieldElem
}

type fieldElem struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type replaceOp struct {
	XMLName xml.Name `xml:"replace"`
	Sel     string   `xml:"sel,attr"`
	Value   string   `xml:",chardata"`
}

// ExportPatch renders the add/replace patch document the TMS registration API
// consumes. It returns the empty string when nothing changed. A changed field
// whose snapshot value is empty contributes no operation, so the document may
// legitimately contain zero operations.
//
// Per field: baseline empty and snapshot non-empty emits an add under the
// Registration element; otherwise a differing non-empty snapshot value emits a
// replace targeting the field's text node. A replace to progresspercent 0 is
// suppressed by the empty-value rule; the TMS never sees a regression to zero.
// That asymmetry matches the previously deployed behavior and must not be
// "fixed" here without a coordinated TMS-side change.
func ExportPatch(s *Snapshot, b *Baseline) (string, error) {
	if !HasChanged(s, b) {
		return "", nil
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	root := xml.StartElement{Name: xml.Name{Local: "diff"}}
	if err := enc.EncodeToken(root); err != nil {
		return "", fmt.Errorf("result: encode patch: %w", err)
	}

	for _, f := range trackedFields {
		sv, bv := f.snap(s), f.base(b)

		var op any
		switch {
		case bv.isEmpty() && !sv.isEmpty():
			op = addOp{
				Sel: registrationSel,
				Field: fieldElem{
					XMLName: xml.Name{Local: f.wire},
					Value:   f.format(sv),
				},
			}
		case !sv.equal(bv, f.numeric) && !sv.isEmpty():
			op = replaceOp{
				Sel:   registrationSel + "/" + f.wire + "/text()[1]",
				Value: f.format(sv),
			}
		default:
			continue
		}

		if err := enc.Encode(op); err != nil {
			return "", fmt.Errorf("result: encode patch op %s: %w", f.name, err)
		}
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return "", fmt.Errorf("result: encode patch: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return "", fmt.Errorf("result: encode patch: %w", err)
	}

	return buf.String(), nil
}
