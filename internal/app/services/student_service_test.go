package services

import (
	"context"
	"mime/multipart"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icemlc/lcportal/internal/app/models"
	"github.com/icemlc/lcportal/internal/pkg/apperrors"
)

type studentHarness struct {
	approvals   *fakeApprovalStore
	students    *fakeStudentStore
	departments *fakeDepartmentStore
	storage     *fakeFileStorage
	svc         *StudentService
}

func newStudentHarness(t *testing.T) *studentHarness {
	t.Helper()

	h := &studentHarness{
		approvals:   newFakeApprovalStore(),
		students:    newFakeStudentStore(),
		departments: testCatalog(),
		storage:     &fakeFileStorage{},
	}
	h.departments.branches[10] = &models.Branch{ID: 10, Name: "Computer Engineering"}

	student, _ := testStudent()
	h.students.students[student.PRN] = student

	h.svc = NewStudentService(
		h.students,
		h.departments,
		h.approvals,
		h.departments,
		h.storage,
		zerolog.Nop(),
	)
	return h
}

func submitRequest() *models.StudentProfile {
	return &models.StudentProfile{
		BranchID:         10,
		YearOfAdmission:  2021,
		AdmissionMode:    "FIRST_YEAR",
		ReasonForLeaving: "Completed the course",
	}
}

func TestRegisterStudent_Validation(t *testing.T) {
	h := newStudentHarness(t)

	tests := []struct {
		name    string
		student *models.Student
	}{
		{"bad prn", &models.Student{PRN: "x!", Name: "Asha", Email: "a@example.com", College: "ICEM"}},
		{"bad email", &models.Student{PRN: "21510002", Name: "Asha", Email: "not-an-email", College: "ICEM"}},
		{"short name", &models.Student{PRN: "21510002", Name: "A", Email: "a@example.com", College: "ICEM"}},
		{"missing college", &models.Student{PRN: "21510002", Name: "Asha", Email: "a@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.svc.RegisterStudent(context.Background(), tt.student)
			assert.ErrorIs(t, err, apperrors.ErrBadRequest)
		})
	}
}

func TestRegisterStudent_UppercasesPRN(t *testing.T) {
	h := newStudentHarness(t)

	student := &models.Student{PRN: "21510002ab", Name: "Ravi Patil", Email: "ravi@example.com", College: "ICEM"}
	require.NoError(t, h.svc.RegisterStudent(context.Background(), student))
	assert.Equal(t, "21510002AB", student.PRN)
}

func TestSubmitForm_FirstSubmissionOpensClearanceChain(t *testing.T) {
	h := newStudentHarness(t)

	profile, err := h.svc.SubmitForm(context.Background(), "21510001", submitRequest())
	require.NoError(t, err)

	assert.Equal(t, "Computer Engineering", profile.Branch)

	// Exactly one request exists, addressed to the finance tier
	assert.True(t, h.approvals.pending("21510001", 1))
	assert.Len(t, h.approvals.requests, 1)
}

func TestSubmitForm_ResubmissionWhileEditableIsIdempotent(t *testing.T) {
	h := newStudentHarness(t)

	_, err := h.svc.SubmitForm(context.Background(), "21510001", submitRequest())
	require.NoError(t, err)

	update := submitRequest()
	update.ReasonForLeaving = "Transferring to another university"
	_, err = h.svc.SubmitForm(context.Background(), "21510001", update)
	require.NoError(t, err)

	// The form changed but no duplicate finance request appeared
	stored, err := h.students.GetProfile(context.Background(), "21510001")
	require.NoError(t, err)
	assert.Equal(t, "Transferring to another university", stored.ReasonForLeaving)
	assert.Len(t, h.approvals.requests, 1)
}

func TestSubmitForm_LockedFormIsRejected(t *testing.T) {
	h := newStudentHarness(t)

	_, err := h.svc.SubmitForm(context.Background(), "21510001", submitRequest())
	require.NoError(t, err)

	// A department approval locks the form
	h.students.profiles["21510001"].IsFormEditable = false

	_, err = h.svc.SubmitForm(context.Background(), "21510001", submitRequest())
	assert.ErrorIs(t, err, apperrors.ErrFormLocked)
}

func TestSubmitForm_UnknownStudent(t *testing.T) {
	h := newStudentHarness(t)

	_, err := h.svc.SubmitForm(context.Background(), "99999999", submitRequest())
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
}

func TestSubmitForm_UnknownBranch(t *testing.T) {
	h := newStudentHarness(t)

	form := submitRequest()
	form.BranchID = 404
	_, err := h.svc.SubmitForm(context.Background(), "21510001", form)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestRecordCertificate_RequiresReadiness(t *testing.T) {
	h := newStudentHarness(t)

	_, err := h.svc.SubmitForm(context.Background(), "21510001", submitRequest())
	require.NoError(t, err)

	file := &multipart.FileHeader{Filename: "lc.pdf"}
	_, err = h.svc.RecordCertificate(context.Background(), "21510001", file)
	assert.ErrorIs(t, err, apperrors.ErrCertificateNotReady)
	assert.Empty(t, h.storage.saved)
}

func TestRecordCertificate_StoresFileAndFlipsFlags(t *testing.T) {
	h := newStudentHarness(t)

	_, err := h.svc.SubmitForm(context.Background(), "21510001", submitRequest())
	require.NoError(t, err)
	h.students.profiles["21510001"].LCReady = true

	file := &multipart.FileHeader{Filename: "lc.pdf"}
	profile, err := h.svc.RecordCertificate(context.Background(), "21510001", file)
	require.NoError(t, err)

	assert.True(t, profile.LCGenerated)
	require.NotNil(t, profile.LCURL)
	assert.Contains(t, *profile.LCURL, "certificates")
	require.Len(t, h.storage.saved, 1)

	stored, err := h.students.GetProfile(context.Background(), "21510001")
	require.NoError(t, err)
	assert.True(t, stored.LCGenerated)
	require.NotNil(t, stored.LCURL)
}

func TestGetStudent_WithAndWithoutProfile(t *testing.T) {
	h := newStudentHarness(t)

	student, err := h.svc.GetStudent(context.Background(), "21510001")
	require.NoError(t, err)
	assert.Nil(t, student.Profile)

	_, err = h.svc.SubmitForm(context.Background(), "21510001", submitRequest())
	require.NoError(t, err)

	student, err = h.svc.GetStudent(context.Background(), "21510001")
	require.NoError(t, err)
	require.NotNil(t, student.Profile)
	assert.Equal(t, "Computer Engineering", student.Profile.Branch)
}
