package service

import (
	"context"
	"errors"
	"lan_exam_backend/internal/model"
	"lan_exam_backend/internal/repository"
	"lan_exam_backend/internal/testutil"
	"lan_exam_backend/internal/util"
	"strconv"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"
)

func newExamService(db *gorm.DB) *ExamService {
	return NewExamService(
		db,
		repository.NewUserRepository(db),
		repository.NewQuestionRepository(db),
		repository.NewExamRepository(db),
		repository.NewResultRepository(db),
		repository.NewSettingRepository(db),
		repository.NewTabSwitchRepository(db),
	)
}

func paperIDs(p *ExamPaper) []uint {
	ids := make([]uint, len(p.Questions))
	for i, q := range p.Questions {
		ids[i] = q.ID
	}
	return ids
}

func correctAnswers(t *testing.T, db *gorm.DB, ids []uint) map[string]string {
	t.Helper()
	answers := make(map[string]string, len(ids))
	for _, id := range ids {
		var q model.Question
		if err := db.First(&q, id).Error; err != nil {
			t.Fatalf("load question %d: %v", id, err)
		}
		answers[strconv.FormatUint(uint64(id), 10)] = q.CorrectAnswer
	}
	return answers
}

func TestStartAssignsThenResumes(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateQuestions(t, db, 12)
	testutil.SetExamSettings(t, db, 45, 5)
	student := testutil.CreateUser(t, db, "student1", "pass123", model.Student)
	svc := newExamService(db)
	ctx := context.Background()

	first, err := svc.Start(ctx, student.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(first.Questions) != 5 || first.Duration != 45 || first.Resumed {
		t.Fatalf("unexpected paper: %d questions, duration %d, resumed %v", len(first.Questions), first.Duration, first.Resumed)
	}
	seen := map[uint]bool{}
	for _, q := range first.Questions {
		if seen[q.ID] {
			t.Fatalf("question %d assigned twice", q.ID)
		}
		seen[q.ID] = true
		if len(q.Options) != 4 {
			t.Errorf("question %d has %d options", q.ID, len(q.Options))
		}
	}

	second, err := svc.Start(ctx, student.ID)
	if err != nil {
		t.Fatalf("Start again: %v", err)
	}
	if !second.Resumed {
		t.Error("second start should resume")
	}
	if second.StartedAt.Sub(first.StartedAt).Abs() > time.Millisecond {
		t.Errorf("started_at changed on resume: %v vs %v", first.StartedAt, second.StartedAt)
	}
	a, b := paperIDs(first), paperIDs(second)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("resume reordered questions: %v vs %v", a, b)
		}
	}

	var count int64
	db.Model(&model.ActiveExam{}).Where("user_id = ?", student.ID).Count(&count)
	if count != 1 {
		t.Errorf("active exams = %d, want 1", count)
	}
}

func TestStartNotEnoughQuestions(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateQuestions(t, db, 3)
	testutil.SetExamSettings(t, db, 30, 5)
	student := testutil.CreateUser(t, db, "student1", "pass123", model.Student)

	_, err := newExamService(db).Start(context.Background(), student.ID)
	if !errors.Is(err, util.ErrNotEnoughQuestions) {
		t.Fatalf("err = %v, want ErrNotEnoughQuestions", err)
	}

	var count int64
	db.Model(&model.ActiveExam{}).Count(&count)
	if count != 0 {
		t.Errorf("active exam persisted despite failure")
	}
}

func TestStartRejectsAttempted(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateQuestions(t, db, 10)
	student := testutil.CreateUser(t, db, "student1", "pass123", model.Student)
	db.Model(student).Update("attempted", true)

	_, err := newExamService(db).Start(context.Background(), student.ID)
	if !errors.Is(err, util.ErrAlreadyAttempted) {
		t.Fatalf("err = %v, want ErrAlreadyAttempted", err)
	}
}

func TestResumeOmitsDeletedQuestion(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateQuestions(t, db, 4)
	testutil.SetExamSettings(t, db, 30, 4)
	student := testutil.CreateUser(t, db, "student1", "pass123", model.Student)
	svc := newExamService(db)
	ctx := context.Background()

	paper, err := svc.Start(ctx, student.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	removed := paper.Questions[1].ID
	if err := db.Delete(&model.Question{}, removed).Error; err != nil {
		t.Fatalf("delete question: %v", err)
	}

	resumed, err := svc.Start(ctx, student.ID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if len(resumed.Questions) != 3 {
		t.Fatalf("resumed questions = %d, want 3", len(resumed.Questions))
	}
	for _, q := range resumed.Questions {
		if q.ID == removed {
			t.Error("deleted question still served")
		}
	}

	// 被删除的题目仍计入总题数但不得分
	answers := correctAnswers(t, db, paperIDs(resumed))
	res, err := svc.Submit(ctx, student.ID, answers, "192.168.1.5")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Score != 3 || res.Total != 4 {
		t.Errorf("result = %+v, want 3/4", res)
	}
}

func TestSubmitScoresAndLocksStudent(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateQuestions(t, db, 10)
	testutil.SetExamSettings(t, db, 30, 5)
	student := testutil.CreateUser(t, db, "student1", "pass123", model.Student)
	svc := newExamService(db)
	ctx := context.Background()

	paper, err := svc.Start(ctx, student.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	ids := paperIDs(paper)
	answers := correctAnswers(t, db, ids)
	delete(answers, strconv.FormatUint(uint64(ids[0]), 10))

	res, err := svc.Submit(ctx, student.ID, answers, "192.168.1.5")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Score != 4 || res.Total != 5 {
		t.Errorf("result = %+v, want 4/5", res)
	}

	var user model.User
	db.First(&user, student.ID)
	if !user.Attempted {
		t.Error("student should be marked attempted")
	}

	var active, answerRows, results int64
	db.Model(&model.ActiveExam{}).Where("user_id = ?", student.ID).Count(&active)
	db.Model(&model.Answer{}).Where("user_id = ?", student.ID).Count(&answerRows)
	db.Model(&model.Result{}).Where("user_id = ? AND ip_address = ?", student.ID, "192.168.1.5").Count(&results)
	if active != 0 || answerRows != 5 || results != 1 {
		t.Errorf("active=%d answers=%d results=%d, want 0/5/1", active, answerRows, results)
	}

	var blank model.Answer
	db.Where("user_id = ? AND question_id = ?", student.ID, ids[0]).First(&blank)
	if blank.SelectedAnswer != "" {
		t.Errorf("unanswered question stored %q", blank.SelectedAnswer)
	}

	if _, err := svc.Submit(ctx, student.ID, answers, "192.168.1.5"); !errors.Is(err, util.ErrExamNotStarted) {
		t.Errorf("second submit err = %v, want ErrExamNotStarted", err)
	}
	if _, err := svc.Start(ctx, student.ID); !errors.Is(err, util.ErrAlreadyAttempted) {
		t.Errorf("start after submit err = %v, want ErrAlreadyAttempted", err)
	}
}

func TestSubmitWithoutStart(t *testing.T) {
	db := testutil.NewDB(t)
	student := testutil.CreateUser(t, db, "student1", "pass123", model.Student)

	_, err := newExamService(db).Submit(context.Background(), student.ID, nil, "192.168.1.5")
	if !errors.Is(err, util.ErrExamNotStarted) {
		t.Fatalf("err = %v, want ErrExamNotStarted", err)
	}
}

func TestConcurrentSubmitRecordsOneResult(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateQuestions(t, db, 6)
	testutil.SetExamSettings(t, db, 30, 3)
	student := testutil.CreateUser(t, db, "student1", "pass123", model.Student)
	svc := newExamService(db)
	ctx := context.Background()

	if _, err := svc.Start(ctx, student.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(ctx, student.ID, map[string]string{}, "192.168.1.5")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		} else if !errors.Is(err, util.ErrExamNotStarted) && !errors.Is(err, util.ErrAlreadyAttempted) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("successful submits = %d, want 1", ok)
	}

	var results int64
	db.Model(&model.Result{}).Where("user_id = ?", student.ID).Count(&results)
	if results != 1 {
		t.Errorf("results = %d, want 1", results)
	}
}

func TestSampleIDs(t *testing.T) {
	ids := []uint{10, 11, 12, 13, 14, 15}

	// intn 总是返回 0 时保持原顺序
	got := sampleIDs(ids, 3, func(int) int { return 0 })
	want := []uint{10, 11, 12}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sampleIDs = %v, want %v", got, want)
		}
	}

	// 取最后一个元素
	got = sampleIDs(ids, 2, func(n int) int { return n - 1 })
	if got[0] != 15 || len(got) != 2 {
		t.Fatalf("sampleIDs = %v", got)
	}
	if ids[0] != 10 || ids[5] != 15 {
		t.Error("input slice must not be modified")
	}

	all := sampleIDs(ids, len(ids), func(n int) int { return n / 2 })
	seen := map[uint]bool{}
	for _, id := range all {
		seen[id] = true
	}
	if len(seen) != len(ids) {
		t.Errorf("full sample lost ids: %v", all)
	}
}

func TestGradeAnswers(t *testing.T) {
	byID := map[uint]*model.Question{
		1: {BaseModel: model.BaseModel{ID: 1}, CorrectAnswer: "A"},
		2: {BaseModel: model.BaseModel{ID: 2}, CorrectAnswer: "B"},
		3: {BaseModel: model.BaseModel{ID: 3}, CorrectAnswer: "C"},
	}
	ids := []uint{1, 2, 3, 4}

	tests := []struct {
		name    string
		answers map[string]string
		want    int
	}{
		{"all correct", map[string]string{"1": "A", "2": "B", "3": "C"}, 3},
		{"case sensitive", map[string]string{"1": "a", "2": "B"}, 1},
		{"deleted question never scores", map[string]string{"4": "A"}, 0},
		{"no answers", nil, 0},
		{"unassigned ids ignored", map[string]string{"9": "A", "1": "A"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, rows := gradeAnswers(5, ids, byID, tt.answers)
			if score != tt.want {
				t.Errorf("score = %d, want %d", score, tt.want)
			}
			if len(rows) != len(ids) {
				t.Errorf("answer rows = %d, want %d", len(rows), len(ids))
			}
		})
	}

	_, rows := gradeAnswers(5, []uint{1}, byID, map[string]string{"1": "ABCDEFGHIJKLMNOP"})
	if len(rows[0].SelectedAnswer) != model.MaxSelectedAnswerLen {
		t.Errorf("stored answer not truncated: %q", rows[0].SelectedAnswer)
	}
}

func TestTabSwitchTracking(t *testing.T) {
	db := testutil.NewDB(t)
	student := testutil.CreateUser(t, db, "student1", "pass123", model.Student)
	svc := newExamService(db)
	ctx := context.Background()

	if n, err := svc.TabSwitchCount(ctx, student.ID); err != nil || n != 0 {
		t.Fatalf("initial count = %d, %v", n, err)
	}
	if err := svc.RecordTabSwitch(ctx, student.ID, -1, "192.168.1.5"); !errors.Is(err, util.ErrInvalidInput) {
		t.Errorf("negative count err = %v", err)
	}
	for _, c := range []int{1, 3, 2} {
		if err := svc.RecordTabSwitch(ctx, student.ID, c, "192.168.1.5"); err != nil {
			t.Fatalf("RecordTabSwitch(%d): %v", c, err)
		}
	}
	if n, err := svc.TabSwitchCount(ctx, student.ID); err != nil || n != 3 {
		t.Errorf("max count = %d, %v; want 3", n, err)
	}
}

func TestStatus(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateQuestions(t, db, 5)
	testutil.SetExamSettings(t, db, 20, 2)
	student := testutil.CreateUser(t, db, "student1", "pass123", model.Student)
	svc := newExamService(db)
	ctx := context.Background()

	st, err := svc.Status(ctx, student.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Started || st.Attempted || st.Duration != 20 {
		t.Errorf("fresh status = %+v", st)
	}

	if _, err := svc.Start(ctx, student.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	st, _ = svc.Status(ctx, student.ID)
	if !st.Started || st.StartedAt == nil {
		t.Errorf("status after start = %+v", st)
	}
}
