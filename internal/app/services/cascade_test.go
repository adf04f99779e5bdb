package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icemlc/lcportal/internal/app/models"
)

func branchID(id int64) *int64 {
	return &id
}

// testCatalog builds the catalog used across the cascade and state machine
// tests: one department per sequential tier, branch heads for two colleges
// and a mix of terminal clearance desks.
func testCatalog() *fakeDepartmentStore {
	return newFakeDepartmentStore(
		&models.Department{ID: 1, Name: "Account Section", Category: models.CategoryFinance, College: models.CollegeAll},
		&models.Department{ID: 2, Name: "Library Dept", Category: models.CategoryLibrary, College: models.CollegeAll},
		&models.Department{ID: 3, Name: "HOD Computer (ICEM)", Category: models.CategoryBranchHead, BranchID: branchID(10), College: "ICEM"},
		&models.Department{ID: 4, Name: "HOD Computer (ICP)", Category: models.CategoryBranchHead, BranchID: branchID(10), College: "ICP"},
		&models.Department{ID: 5, Name: "Registrar Office", Category: models.CategoryRegistrar, College: models.CollegeAll},
		&models.Department{ID: 6, Name: "Training & Placement", Category: models.CategoryOther, College: models.CollegeAll},
		&models.Department{ID: 7, Name: "Hostel Office", Category: models.CategoryOther, College: "ICEM"},
		&models.Department{ID: 8, Name: "Sports Dept", Category: models.CategoryOther, College: "ICP"},
	)
}

func testStudent() (*models.Student, *models.StudentProfile) {
	student := &models.Student{
		PRN:     "21510001",
		Name:    "Asha Kulkarni",
		Email:   "asha@example.com",
		College: "ICEM",
	}
	profile := &models.StudentProfile{
		StudentPRN:      student.PRN,
		BranchID:        10,
		Branch:          "Computer Engineering",
		YearOfAdmission: 2021,
		IsFormEditable:  true,
	}
	return student, profile
}

func TestResolveNextStage(t *testing.T) {
	catalog := testCatalog()
	resolver := NewCascadeResolver(catalog)
	student, profile := testStudent()
	ctx := context.Background()

	tests := []struct {
		name      string
		approved  *models.Department
		wantDepts []int64
	}{
		{
			name:      "finance routes to library",
			approved:  &models.Department{ID: 1, Category: models.CategoryFinance},
			wantDepts: []int64{2},
		},
		{
			name:      "library routes to the student's branch head only",
			approved:  &models.Department{ID: 2, Category: models.CategoryLibrary},
			wantDepts: []int64{3},
		},
		{
			name:      "branch head fans out to remaining desks in scope",
			approved:  &models.Department{ID: 3, Category: models.CategoryBranchHead},
			wantDepts: []int64{6, 7},
		},
		{
			name:      "registrar is terminal",
			approved:  &models.Department{ID: 5, Category: models.CategoryRegistrar},
			wantDepts: nil,
		},
		{
			name:      "clearance desks are terminal",
			approved:  &models.Department{ID: 6, Category: models.CategoryOther},
			wantDepts: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := resolver.ResolveNextStage(ctx, tt.approved, student, profile)
			require.NoError(t, err)

			var gotIDs []int64
			for _, dept := range next {
				gotIDs = append(gotIDs, dept.ID)
			}
			assert.ElementsMatch(t, tt.wantDepts, gotIDs)
		})
	}
}

func TestResolveNextStage_NoLibraryEndsChain(t *testing.T) {
	catalog := newFakeDepartmentStore(
		&models.Department{ID: 1, Name: "Account Section", Category: models.CategoryFinance, College: models.CollegeAll},
	)
	resolver := NewCascadeResolver(catalog)
	student, profile := testStudent()

	next, err := resolver.ResolveNextStage(context.Background(),
		&models.Department{ID: 1, Category: models.CategoryFinance}, student, profile)
	require.NoError(t, err)
	assert.Empty(t, next)
}

func TestResolveNextStage_OtherCollegeDesksExcluded(t *testing.T) {
	catalog := testCatalog()
	resolver := NewCascadeResolver(catalog)
	student, profile := testStudent()
	student.College = "ICP"

	next, err := resolver.ResolveNextStage(context.Background(),
		&models.Department{ID: 4, Category: models.CategoryBranchHead}, student, profile)
	require.NoError(t, err)

	var gotIDs []int64
	for _, dept := range next {
		gotIDs = append(gotIDs, dept.ID)
	}
	// ALL-scoped and ICP desks apply; the ICEM hostel office does not.
	assert.ElementsMatch(t, []int64{6, 8}, gotIDs)
}
