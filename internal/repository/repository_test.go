package repository

import (
	"context"
	"lan_exam_backend/internal/model"
	"lan_exam_backend/internal/testutil"
	"testing"
	"time"
)

func TestCreateActiveExamIfAbsent(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewExamRepository(db)
	ctx := context.Background()

	first := &model.ActiveExam{UserID: 1, QuestionIDs: []uint{3, 1, 2}, StartedAt: time.Now()}
	created, err := repo.CreateActiveExamIfAbsent(ctx, first)
	if err != nil || !created {
		t.Fatalf("first insert = %v, %v", created, err)
	}

	second := &model.ActiveExam{UserID: 1, QuestionIDs: []uint{9, 8}, StartedAt: time.Now()}
	created, err = repo.CreateActiveExamIfAbsent(ctx, second)
	if err != nil || created {
		t.Fatalf("conflicting insert = %v, %v; want false, nil", created, err)
	}

	got, err := repo.FindActiveExam(ctx, 1)
	if err != nil {
		t.Fatalf("FindActiveExam: %v", err)
	}
	want := []uint{3, 1, 2}
	if len(got.QuestionIDs) != len(want) {
		t.Fatalf("question ids = %v, want %v", got.QuestionIDs, want)
	}
	for i := range want {
		if got.QuestionIDs[i] != want[i] {
			t.Fatalf("question ids = %v, want %v", got.QuestionIDs, want)
		}
	}

	n, err := repo.DeleteActiveExam(ctx, 1)
	if err != nil || n != 1 {
		t.Fatalf("DeleteActiveExam = %d, %v", n, err)
	}
	n, _ = repo.DeleteActiveExam(ctx, 1)
	if n != 0 {
		t.Errorf("second delete affected %d rows", n)
	}
}

func TestMarkAttemptedIsOneWay(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	user := testutil.CreateUser(t, db, "student1", "pass123", model.Student)
	ctx := context.Background()

	marked, err := repo.MarkAttempted(ctx, user.ID)
	if err != nil || !marked {
		t.Fatalf("MarkAttempted = %v, %v", marked, err)
	}
	marked, err = repo.MarkAttempted(ctx, user.ID)
	if err != nil || marked {
		t.Errorf("second MarkAttempted = %v, %v; want false", marked, err)
	}
}

func TestFindByUsernameAndRole(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	testutil.CreateUser(t, db, "admin", "admin123", model.Admin)
	ctx := context.Background()

	if _, err := repo.FindByUsernameAndRole(ctx, "admin", model.Admin); err != nil {
		t.Errorf("admin lookup: %v", err)
	}
	if _, err := repo.FindByUsernameAndRole(ctx, "admin", model.Student); err == nil {
		t.Error("admin must not be found as student")
	}
}

func TestQuestionFindByIDsSkipsMissing(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewQuestionRepository(db)
	qs := testutil.CreateQuestions(t, db, 3)

	byID, err := repo.FindByIDs(context.Background(), []uint{qs[0].ID, qs[2].ID, 999})
	if err != nil {
		t.Fatalf("FindByIDs: %v", err)
	}
	if len(byID) != 2 || byID[qs[2].ID].Question != qs[2].Question {
		t.Errorf("FindByIDs = %v", byID)
	}

	ids, err := repo.ListIDs(context.Background())
	if err != nil || len(ids) != 3 {
		t.Errorf("ListIDs = %v, %v", ids, err)
	}
}

func TestSessionCloseActive(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSessionRepository(db)
	user := testutil.CreateUser(t, db, "student1", "pass123", model.Student)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		s := &model.UserSession{UserID: user.ID, IPAddress: "192.168.1.5", LoginTime: time.Now(), IsActive: true}
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	n, err := repo.CloseActive(ctx, user.ID, time.Now())
	if err != nil || n != 2 {
		t.Fatalf("CloseActive = %d, %v", n, err)
	}

	rows, err := repo.ListWithUsers(ctx)
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListWithUsers = %v, %v", rows, err)
	}
	for _, r := range rows {
		if r.IsActive || r.LogoutTime == nil || r.Username != "student1" {
			t.Errorf("session row = %+v", r)
		}
	}
}
