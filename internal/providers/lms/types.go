package lms

// JSON rows returned by the LMS web services.

type courseRow struct {
	ID        int64  `json:"id"`
	FullName  string `json:"fullname"`
	ShortName string `json:"shortname"`
	IDNumber  string `json:"idnumber"`
}

type gradeItemRow struct {
	Exists      bool    `json:"exists"`
	PassMark    float64 `json:"gradepass"`
	HasPassMark bool    `json:"haspassmark"`
	Decimals    int     `json:"decimals"`
}

type userGradeRow struct {
	Exists  bool    `json:"exists"`
	Display string  `json:"display"`
	Real    float64 `json:"real"`
}

type completionRow struct {
	Tracked           bool  `json:"tracked"`
	Complete          bool  `json:"complete"`
	CompletedCriteria int   `json:"completedcriteria"`
	TotalCriteria     int   `json:"totalcriteria"`
	TimeStarted       int64 `json:"timestarted"`
}

type lastAccessRow struct {
	TimeAccess int64 `json:"timeaccess"`
}
