package cli

import (
	"strconv"

	"qadmin/internal/importer"
	"qadmin/internal/model"
)

// codeList, codeRecord and importReport adapt results to --format table.
// They keep the JSON shape of the types they wrap.
type codeList []model.RejectionCode

func (l codeList) TableHeader() []string {
	return []string{"KEY", "CODE", "NAME", "DESCRIPTION"}
}

func (l codeList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, rc := range l {
		rows = append(rows, []string{rc.Key, rc.Code, rc.Name, rc.Description})
	}
	return rows
}

type codeRecord model.RejectionCode

func (r codeRecord) TableHeader() []string { return []string{"FIELD", "VALUE"} }

func (r codeRecord) TableRows() [][]string {
	return [][]string{
		{"key", r.Key},
		{"code", r.Code},
		{"name", r.Name},
		{"description", r.Description},
	}
}

type importReport importer.Report

func (r importReport) TableHeader() []string { return []string{"LINE", "MESSAGE"} }

func (r importReport) TableRows() [][]string {
	rows := [][]string{
		{"-", "read " + strconv.Itoa(r.Read) + ", batches " + strconv.Itoa(r.Batches) +
			", accepted " + strconv.Itoa(r.Accepted) + ", created " + strconv.Itoa(r.Created)},
	}
	for _, re := range r.Rejected {
		rows = append(rows, []string{strconv.Itoa(re.Line), re.Message})
	}
	return rows
}
