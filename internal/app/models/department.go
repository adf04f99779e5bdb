package models

// DepartmentCategory drives the clearance cascade. Categories are assigned
// when the catalog is seeded; routing never inspects department names.
type DepartmentCategory string

const (
	CategoryFinance    DepartmentCategory = "FINANCE"
	CategoryLibrary    DepartmentCategory = "LIBRARY"
	CategoryBranchHead DepartmentCategory = "BRANCH_HEAD"
	CategoryRegistrar  DepartmentCategory = "REGISTRAR"
	CategoryOther      DepartmentCategory = "OTHER"
)

// CollegeAll is the sentinel college scope for departments that clear
// students of every college.
const CollegeAll = "ALL"

// Department is an entry in the mostly-static clearance catalog. BranchID is
// set only for per-branch head-of-department entries.
type Department struct {
	ID       int64              `json:"id"`
	Name     string             `json:"name"`
	Category DepartmentCategory `json:"category"`
	BranchID *int64             `json:"branchId,omitempty"`
	College  string             `json:"college"`
}

// AppliesTo reports whether the department clears students of the given
// college.
func (d *Department) AppliesTo(college string) bool {
	return d.College == CollegeAll || d.College == college
}

// Branch is an academic branch (e.g. Computer Engineering) referenced by
// student profiles and branch-head departments.
type Branch struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
