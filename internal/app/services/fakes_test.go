package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/icemlc/lcportal/internal/app/models"
	"github.com/icemlc/lcportal/internal/app/repositories"
	"github.com/icemlc/lcportal/internal/db"
	"github.com/icemlc/lcportal/internal/pkg/apperrors"
)

func pairKey(prn string, deptID int64) string {
	return fmt.Sprintf("%s|%d", prn, deptID)
}

// fakeApprovalStore is an in-memory ApprovalStore with the same idempotency
// semantics as the SQL repository.
type fakeApprovalStore struct {
	requests map[int64]*models.ApprovalRequest
	byPair   map[string]int64
	actions  []*models.ApprovalAction
	nextID   int64

	// failInsertFor simulates a storage failure when fanning out to a
	// specific department.
	failInsertFor map[int64]error
}

func newFakeApprovalStore() *fakeApprovalStore {
	return &fakeApprovalStore{
		requests:      make(map[int64]*models.ApprovalRequest),
		byPair:        make(map[string]int64),
		failInsertFor: make(map[int64]error),
	}
}

func (f *fakeApprovalStore) add(req *models.ApprovalRequest) *models.ApprovalRequest {
	f.nextID++
	req.ID = f.nextID
	if req.Status == "" {
		req.Status = models.StatusPending
	}
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	f.requests[req.ID] = req
	f.byPair[pairKey(req.StudentPRN, req.DepartmentID)] = req.ID
	return req
}

func (f *fakeApprovalStore) GetByID(_ context.Context, id int64) (*models.ApprovalRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, apperrors.ErrApprovalNotFound
	}
	cp := *req
	return &cp, nil
}

func (f *fakeApprovalStore) UpdateStatus(_ context.Context, _ repositories.Querier, id int64, status models.ApprovalStatus, remarks string, approvedAt *time.Time) (*models.ApprovalRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, apperrors.ErrApprovalNotFound
	}
	req.Status = status
	req.Remarks = remarks
	if approvedAt != nil {
		req.ApprovedAt = approvedAt
	}
	req.UpdatedAt = time.Now()
	cp := *req
	return &cp, nil
}

func (f *fakeApprovalStore) InsertAction(_ context.Context, _ repositories.Querier, action *models.ApprovalAction) error {
	action.ID = int64(len(f.actions) + 1)
	action.CreatedAt = time.Now()
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakeApprovalStore) InsertIfAbsent(_ context.Context, req *models.ApprovalRequest) (repositories.InsertOutcome, error) {
	if err := f.failInsertFor[req.DepartmentID]; err != nil {
		return 0, err
	}
	if _, ok := f.byPair[pairKey(req.StudentPRN, req.DepartmentID)]; ok {
		return repositories.InsertOutcomeAlreadyExists, nil
	}
	f.add(req)
	return repositories.InsertOutcomeCreated, nil
}

func (f *fakeApprovalStore) ListByStudent(_ context.Context, prn string) ([]*models.ApprovalRequest, error) {
	var out []*models.ApprovalRequest
	for _, req := range f.requests {
		if req.StudentPRN == prn {
			cp := *req
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeApprovalStore) ListByDepartmentAndStatus(_ context.Context, deptID int64, status models.ApprovalStatus) ([]*models.ApprovalRequest, error) {
	var out []*models.ApprovalRequest
	for _, req := range f.requests {
		if req.DepartmentID == deptID && req.Status == status {
			cp := *req
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeApprovalStore) ListActionsByRequest(_ context.Context, requestID int64) ([]*models.ApprovalAction, error) {
	var out []*models.ApprovalAction
	for _, action := range f.actions {
		if action.RequestID == requestID {
			out = append(out, action)
		}
	}
	return out, nil
}

func (f *fakeApprovalStore) CountByStudent(_ context.Context, prn string) (int, int, error) {
	total, nonApproved := 0, 0
	for _, req := range f.requests {
		if req.StudentPRN != prn {
			continue
		}
		total++
		if req.Status != models.StatusApproved {
			nonApproved++
		}
	}
	return total, nonApproved, nil
}

func (f *fakeApprovalStore) pending(prn string, deptID int64) bool {
	id, ok := f.byPair[pairKey(prn, deptID)]
	if !ok {
		return false
	}
	return f.requests[id].Status == models.StatusPending
}

// fakeStudentStore is an in-memory StudentWriter.
type fakeStudentStore struct {
	students map[string]*models.Student
	profiles map[string]*models.StudentProfile

	flagUpdates int
}

func newFakeStudentStore() *fakeStudentStore {
	return &fakeStudentStore{
		students: make(map[string]*models.Student),
		profiles: make(map[string]*models.StudentProfile),
	}
}

func (f *fakeStudentStore) Create(_ context.Context, student *models.Student) error {
	if _, ok := f.students[student.PRN]; ok {
		return apperrors.ErrPRNAlreadyExists
	}
	f.students[student.PRN] = student
	return nil
}

func (f *fakeStudentStore) GetByPRN(_ context.Context, prn string) (*models.Student, error) {
	student, ok := f.students[prn]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	cp := *student
	return &cp, nil
}

func (f *fakeStudentStore) GetProfile(_ context.Context, prn string) (*models.StudentProfile, error) {
	profile, ok := f.profiles[prn]
	if !ok {
		return nil, apperrors.ErrProfileNotFound
	}
	cp := *profile
	return &cp, nil
}

func (f *fakeStudentStore) UpsertProfile(_ context.Context, profile *models.StudentProfile) error {
	if existing, ok := f.profiles[profile.StudentPRN]; ok {
		profile.IsFormEditable = existing.IsFormEditable
		profile.LCReady = existing.LCReady
		profile.LCGenerated = existing.LCGenerated
		profile.LCURL = existing.LCURL
	} else {
		profile.IsFormEditable = true
	}
	cp := *profile
	f.profiles[profile.StudentPRN] = &cp
	return nil
}

func (f *fakeStudentStore) UpdateFlags(_ context.Context, _ repositories.Querier, prn string, flags repositories.ProfileFlags) error {
	profile, ok := f.profiles[prn]
	if !ok {
		return apperrors.ErrProfileNotFound
	}
	if flags.IsFormEditable != nil {
		profile.IsFormEditable = *flags.IsFormEditable
	}
	if flags.LCReady != nil {
		profile.LCReady = *flags.LCReady
	}
	if flags.LCGenerated != nil {
		profile.LCGenerated = *flags.LCGenerated
	}
	if flags.ClearLCURL {
		profile.LCURL = nil
	} else if flags.LCURL != nil {
		profile.LCURL = flags.LCURL
	}
	f.flagUpdates++
	return nil
}

// fakeDepartmentStore is an in-memory DepartmentStore mirroring the catalog
// queries of the SQL repository.
type fakeDepartmentStore struct {
	departments []*models.Department
	branches    map[int64]*models.Branch
}

func newFakeDepartmentStore(departments ...*models.Department) *fakeDepartmentStore {
	return &fakeDepartmentStore{
		departments: departments,
		branches:    make(map[int64]*models.Branch),
	}
}

func (f *fakeDepartmentStore) GetByID(_ context.Context, id int64) (*models.Department, error) {
	for _, dept := range f.departments {
		if dept.ID == id {
			return dept, nil
		}
	}
	return nil, apperrors.ErrDepartmentNotFound
}

func (f *fakeDepartmentStore) FirstByCategory(_ context.Context, category models.DepartmentCategory) (*models.Department, error) {
	for _, dept := range f.departments {
		if dept.Category == category {
			return dept, nil
		}
	}
	return nil, apperrors.ErrDepartmentNotFound
}

func (f *fakeDepartmentStore) BranchHeads(_ context.Context, branchID int64, college string) ([]*models.Department, error) {
	var out []*models.Department
	for _, dept := range f.departments {
		if dept.Category == models.CategoryBranchHead &&
			dept.BranchID != nil && *dept.BranchID == branchID &&
			dept.College == college {
			out = append(out, dept)
		}
	}
	return out, nil
}

func (f *fakeDepartmentStore) RemainingClearance(_ context.Context, college string) ([]*models.Department, error) {
	var out []*models.Department
	for _, dept := range f.departments {
		switch dept.Category {
		case models.CategoryFinance, models.CategoryLibrary, models.CategoryRegistrar:
			continue
		}
		if dept.BranchID != nil {
			continue
		}
		if dept.College != college && dept.College != models.CollegeAll {
			continue
		}
		out = append(out, dept)
	}
	return out, nil
}

func (f *fakeDepartmentStore) GetBranchByID(_ context.Context, id int64) (*models.Branch, error) {
	branch, ok := f.branches[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("branch not found")
	}
	return branch, nil
}

// fakeTxRunner runs the transaction function directly. Repositories in these
// tests ignore the querier, so nil stands in for the transaction handle.
type fakeTxRunner struct {
	err error
}

func (f *fakeTxRunner) WithTransaction(ctx context.Context, fn db.TransactionFn) error {
	if f.err != nil {
		return f.err
	}
	return fn(ctx, nil)
}

// fakeFileStorage records saves without touching the filesystem.
type fakeFileStorage struct {
	saved []string
	err   error
}

func (f *fakeFileStorage) SaveFile(fileHeader *multipart.FileHeader) (string, error) {
	return f.SaveFileWithPath(fileHeader, "")
}

func (f *fakeFileStorage) SaveFileWithPath(fileHeader *multipart.FileHeader, path string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	url := "http://localhost:8080/uploads/" + path + "/" + fileHeader.Filename
	f.saved = append(f.saved, url)
	return url, nil
}

func (f *fakeFileStorage) DeleteFile(string) error {
	return nil
}
