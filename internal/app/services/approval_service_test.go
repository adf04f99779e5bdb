package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icemlc/lcportal/internal/app/models"
	"github.com/icemlc/lcportal/internal/pkg/apperrors"
)

type approvalHarness struct {
	approvals   *fakeApprovalStore
	students    *fakeStudentStore
	departments *fakeDepartmentStore
	svc         *ApprovalService
}

func newApprovalHarness(t *testing.T) *approvalHarness {
	t.Helper()

	h := &approvalHarness{
		approvals:   newFakeApprovalStore(),
		students:    newFakeStudentStore(),
		departments: testCatalog(),
	}

	student, profile := testStudent()
	h.students.students[student.PRN] = student
	h.students.profiles[profile.StudentPRN] = profile

	h.svc = NewApprovalService(
		h.approvals,
		h.students,
		h.departments,
		NewCascadeResolver(h.departments),
		&fakeTxRunner{},
		zerolog.Nop(),
	)
	return h
}

// request seeds a PENDING approval request for the test student at the given
// department.
func (h *approvalHarness) request(deptID int64) *models.ApprovalRequest {
	dept, _ := h.departments.GetByID(context.Background(), deptID)
	return h.approvals.add(&models.ApprovalRequest{
		StudentPRN:      "21510001",
		DepartmentID:    deptID,
		StudentName:     "Asha Kulkarni",
		DepartmentName:  dept.Name,
		Branch:          "Computer Engineering",
		YearOfAdmission: 2021,
	})
}

func TestTransitionApproval_InvalidStatus(t *testing.T) {
	h := newApprovalHarness(t)
	req := h.request(1)

	for _, status := range []string{"PENDING", "approved", "DONE", ""} {
		_, err := h.svc.TransitionApproval(context.Background(), 7, 1, req.ID, status, "")
		assert.ErrorIs(t, err, apperrors.ErrInvalidStatus, "status %q", status)
	}

	// Nothing was mutated and no audit rows were written
	stored, err := h.approvals.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Empty(t, h.approvals.actions)
}

func TestTransitionApproval_NotFound(t *testing.T) {
	h := newApprovalHarness(t)

	_, err := h.svc.TransitionApproval(context.Background(), 7, 1, 999, "APPROVED", "")
	assert.ErrorIs(t, err, apperrors.ErrApprovalNotFound)
}

func TestTransitionApproval_DepartmentMismatch(t *testing.T) {
	h := newApprovalHarness(t)
	req := h.request(1)

	// Actor belongs to the library, the request targets finance
	_, err := h.svc.TransitionApproval(context.Background(), 7, 2, req.ID, "APPROVED", "")
	assert.ErrorIs(t, err, apperrors.ErrDepartmentMismatch)

	stored, getErr := h.approvals.GetByID(context.Background(), req.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Empty(t, h.approvals.actions)
}

func TestTransitionApproval_ApproveSpawnsNextStageAndLocksForm(t *testing.T) {
	h := newApprovalHarness(t)
	req := h.request(1)

	updated, err := h.svc.TransitionApproval(context.Background(), 7, 1, req.ID, "APPROVED", "no dues")
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, updated.Status)
	assert.Equal(t, "no dues", updated.Remarks)
	require.NotNil(t, updated.ApprovedAt)

	// A pending library request was fanned out
	assert.True(t, h.approvals.pending("21510001", 2))

	// The form locks on approval
	profile, err := h.students.GetProfile(context.Background(), "21510001")
	require.NoError(t, err)
	assert.False(t, profile.IsFormEditable)

	// Exactly one audit row carrying the acting staff member
	require.Len(t, h.approvals.actions, 1)
	action := h.approvals.actions[0]
	assert.Equal(t, req.ID, action.RequestID)
	assert.Equal(t, int64(7), action.StaffID)
	assert.Equal(t, models.StatusApproved, action.Action)
}

func TestTransitionApproval_LibraryApprovalSpawnsBranchHead(t *testing.T) {
	h := newApprovalHarness(t)
	req := h.request(2)

	_, err := h.svc.TransitionApproval(context.Background(), 11, 2, req.ID, "APPROVED", "")
	require.NoError(t, err)

	// Only the student's own branch head, in their college
	assert.True(t, h.approvals.pending("21510001", 3))
	assert.False(t, h.approvals.pending("21510001", 4))
}

func TestTransitionApproval_BranchHeadApprovalFansOutRemaining(t *testing.T) {
	h := newApprovalHarness(t)
	req := h.request(3)

	_, err := h.svc.TransitionApproval(context.Background(), 21, 3, req.ID, "APPROVED", "")
	require.NoError(t, err)

	assert.True(t, h.approvals.pending("21510001", 6))
	assert.True(t, h.approvals.pending("21510001", 7))
	// The ICP-only desk is out of scope for an ICEM student
	assert.False(t, h.approvals.pending("21510001", 8))
}

func TestTransitionApproval_TerminalApprovalSpawnsNothing(t *testing.T) {
	h := newApprovalHarness(t)
	req := h.request(6)

	before := len(h.approvals.requests)
	_, err := h.svc.TransitionApproval(context.Background(), 31, 6, req.ID, "APPROVED", "")
	require.NoError(t, err)

	assert.Len(t, h.approvals.requests, before)
}

func TestTransitionApproval_DuplicateFanOutIsNoOp(t *testing.T) {
	h := newApprovalHarness(t)
	finance := h.request(1)
	h.request(2) // library request already exists

	before := len(h.approvals.requests)
	_, err := h.svc.TransitionApproval(context.Background(), 7, 1, finance.ID, "APPROVED", "")
	require.NoError(t, err)

	assert.Len(t, h.approvals.requests, before)
}

func TestTransitionApproval_FanOutFailureDoesNotBlockOthers(t *testing.T) {
	h := newApprovalHarness(t)
	req := h.request(3)
	h.approvals.failInsertFor[6] = errors.New("connection reset")

	updated, err := h.svc.TransitionApproval(context.Background(), 21, 3, req.ID, "APPROVED", "")
	require.NoError(t, err)

	// The transition itself committed and the healthy candidate was created
	assert.Equal(t, models.StatusApproved, updated.Status)
	assert.False(t, h.approvals.pending("21510001", 6))
	assert.True(t, h.approvals.pending("21510001", 7))
}

func TestTransitionApproval_RejectStampsResolutionTime(t *testing.T) {
	h := newApprovalHarness(t)
	req := h.request(1)

	updated, err := h.svc.TransitionApproval(context.Background(), 7, 1, req.ID, "REJECTED", "dues pending")
	require.NoError(t, err)

	assert.Equal(t, models.StatusRejected, updated.Status)
	require.NotNil(t, updated.ApprovedAt)

	// Rejection does not touch the form lock
	profile, err := h.students.GetProfile(context.Background(), "21510001")
	require.NoError(t, err)
	assert.True(t, profile.IsFormEditable)

	// No fan-out from a rejection
	assert.False(t, h.approvals.pending("21510001", 2))
}

func TestTransitionApproval_RequestedInfoReopensForm(t *testing.T) {
	h := newApprovalHarness(t)
	req := h.request(1)

	// Lock the form first, as an earlier approval elsewhere would have
	editable := false
	profile := h.students.profiles["21510001"]
	profile.IsFormEditable = editable

	updated, err := h.svc.TransitionApproval(context.Background(), 7, 1, req.ID, "REQUESTED_INFO", "need bonafide copy")
	require.NoError(t, err)

	assert.Equal(t, models.StatusRequestedInfo, updated.Status)
	assert.Nil(t, updated.ApprovedAt)

	profile, err = h.students.GetProfile(context.Background(), "21510001")
	require.NoError(t, err)
	assert.True(t, profile.IsFormEditable)
}

func TestTransitionApproval_TxFailureSurfacesStorageError(t *testing.T) {
	h := newApprovalHarness(t)
	req := h.request(1)

	h.svc.tx = &fakeTxRunner{err: errors.New("deadlock detected")}

	_, err := h.svc.TransitionApproval(context.Background(), 7, 1, req.ID, "APPROVED", "")
	assert.ErrorIs(t, err, apperrors.ErrStorageFailure)
}

func TestTransitionApproval_LastApprovalFlipsReadiness(t *testing.T) {
	h := newApprovalHarness(t)

	// Simulate a walked chain: everything approved but the registrar
	for _, deptID := range []int64{1, 2, 3, 6, 7} {
		r := h.request(deptID)
		r.Status = models.StatusApproved
	}
	registrar := h.request(5)

	stale := "http://localhost:8080/uploads/certificates/old.pdf"
	h.students.profiles["21510001"].LCURL = &stale

	_, err := h.svc.TransitionApproval(context.Background(), 41, 5, registrar.ID, "APPROVED", "")
	require.NoError(t, err)

	profile, err := h.students.GetProfile(context.Background(), "21510001")
	require.NoError(t, err)
	assert.True(t, profile.LCReady)
	assert.False(t, profile.LCGenerated)
	assert.Nil(t, profile.LCURL, "stale certificate pointer must be cleared")
}

func TestRecomputeReadiness_NoRequestsIsNeverReady(t *testing.T) {
	h := newApprovalHarness(t)

	require.NoError(t, h.svc.RecomputeReadiness(context.Background(), "21510001"))

	profile, err := h.students.GetProfile(context.Background(), "21510001")
	require.NoError(t, err)
	assert.False(t, profile.LCReady)
	assert.Zero(t, h.students.flagUpdates)
}

func TestRecomputeReadiness_PendingRequestBlocksReadiness(t *testing.T) {
	h := newApprovalHarness(t)
	approved := h.request(1)
	approved.Status = models.StatusApproved
	h.request(2)

	require.NoError(t, h.svc.RecomputeReadiness(context.Background(), "21510001"))

	profile, err := h.students.GetProfile(context.Background(), "21510001")
	require.NoError(t, err)
	assert.False(t, profile.LCReady)
}

func TestRecomputeReadiness_AlreadyReadyIsNoOp(t *testing.T) {
	h := newApprovalHarness(t)
	req := h.request(1)
	req.Status = models.StatusApproved

	url := "http://localhost:8080/uploads/certificates/lc.pdf"
	profile := h.students.profiles["21510001"]
	profile.LCReady = true
	profile.LCGenerated = true
	profile.LCURL = &url

	require.NoError(t, h.svc.RecomputeReadiness(context.Background(), "21510001"))

	// A re-run after certificate generation must not wipe the flags
	assert.Zero(t, h.students.flagUpdates)
	assert.True(t, profile.LCGenerated)
	assert.NotNil(t, profile.LCURL)
}

func TestGetApproval_ReturnsAuditTrail(t *testing.T) {
	h := newApprovalHarness(t)
	req := h.request(1)

	_, err := h.svc.TransitionApproval(context.Background(), 7, 1, req.ID, "REQUESTED_INFO", "missing receipt")
	require.NoError(t, err)
	_, err = h.svc.TransitionApproval(context.Background(), 7, 1, req.ID, "APPROVED", "receipt verified")
	require.NoError(t, err)

	stored, actions, err := h.svc.GetApproval(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, stored.Status)

	require.Len(t, actions, 2)
	assert.Equal(t, models.StatusRequestedInfo, actions[0].Action)
	assert.Equal(t, models.StatusApproved, actions[1].Action)
}

func TestListByDepartment_UnknownDepartment(t *testing.T) {
	h := newApprovalHarness(t)

	_, err := h.svc.ListByDepartment(context.Background(), 999, models.StatusPending)
	assert.ErrorIs(t, err, apperrors.ErrDepartmentNotFound)
}

func TestListByStudent_UnknownStudent(t *testing.T) {
	h := newApprovalHarness(t)

	_, err := h.svc.ListByStudent(context.Background(), "99999999")
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
}
