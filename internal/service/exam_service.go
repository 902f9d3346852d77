package service

import (
	"context"
	"errors"
	"fmt"
	"lan_exam_backend/internal/model"
	"lan_exam_backend/internal/repository"
	"lan_exam_backend/internal/util"
	"lan_exam_backend/pkg/logger"
	"lan_exam_backend/pkg/monitoring"
	"math/rand"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ExamService 学生考试流程：抽题、断线续考、交卷评分、切屏记录
type ExamService struct {
	DB           *gorm.DB
	UserRepo     *repository.UserRepository
	QuestionRepo *repository.QuestionRepository
	ExamRepo     *repository.ExamRepository
	ResultRepo   *repository.ResultRepository
	SettingRepo  *repository.SettingRepository
	TabRepo      *repository.TabSwitchRepository
	Monitor      *MonitorHub

	intn func(n int) int
}

func NewExamService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	questionRepo *repository.QuestionRepository,
	examRepo *repository.ExamRepository,
	resultRepo *repository.ResultRepository,
	settingRepo *repository.SettingRepository,
	tabRepo *repository.TabSwitchRepository,
) *ExamService {
	return &ExamService{
		DB:           db,
		UserRepo:     userRepo,
		QuestionRepo: questionRepo,
		ExamRepo:     examRepo,
		ResultRepo:   resultRepo,
		SettingRepo:  settingRepo,
		TabRepo:      tabRepo,
		intn:         rand.Intn,
	}
}

// ExamQuestion 下发给学生的题目，不含正确答案
type ExamQuestion struct {
	ID       uint              `json:"id"`
	Question string            `json:"question"`
	Options  map[string]string `json:"options"`
}

type ExamPaper struct {
	Questions []ExamQuestion `json:"questions"`
	Duration  int            `json:"duration"`
	StartedAt time.Time      `json:"started_at"`
	Resumed   bool           `json:"resumed"`
}

type ExamStatus struct {
	Attempted bool       `json:"attempted"`
	Started   bool       `json:"started"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	Duration  int        `json:"duration"`
}

type SubmitResult struct {
	Score int `json:"score"`
	Total int `json:"total"`
}

// Start 首次进入时抽题并保存；已有进行中的考试则按原顺序返回，刷新页面不会重新抽题
func (s *ExamService) Start(ctx context.Context, userID uint) (*ExamPaper, error) {
	var paper *ExamPaper

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.UserRepo.WithTx(tx)
		exams := s.ExamRepo.WithTx(tx)
		questions := s.QuestionRepo.WithTx(tx)

		user, err := users.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrUserNotFound
			}
			return err
		}
		if user.Attempted {
			return util.ErrAlreadyAttempted
		}

		settings, err := s.SettingRepo.WithTx(tx).Get(ctx)
		if err != nil {
			return err
		}

		resumed := true
		exam, err := exams.FindActiveExam(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			resumed = false
			exam, err = s.assign(ctx, questions, exams, userID, settings.QuestionsPerExam)
		}
		if err != nil {
			return err
		}

		byID, err := questions.FindByIDs(ctx, exam.QuestionIDs)
		if err != nil {
			return err
		}

		paper = buildPaper(exam, byID, settings.DurationMinutes)
		paper.Resumed = resumed
		return nil
	})
	if err != nil {
		return nil, err
	}

	kind := "new"
	if paper.Resumed {
		kind = "resume"
	}
	monitoring.ExamStarted.WithLabelValues(kind).Inc()
	logger.Log.Info("User started exam",
		zap.Uint("user_id", userID),
		zap.Bool("resumed", paper.Resumed),
		zap.Int("questions", len(paper.Questions)),
	)
	s.Monitor.Publish(ctx, MonitorEvent{
		Type:   EventExamStarted,
		UserID: userID,
		Data:   map[string]interface{}{"resumed": paper.Resumed, "questions": len(paper.Questions)},
	})
	return paper, nil
}

func (s *ExamService) assign(ctx context.Context, questions *repository.QuestionRepository, exams *repository.ExamRepository, userID uint, n int) (*model.ActiveExam, error) {
	ids, err := questions.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) < n {
		return nil, util.ErrNotEnoughQuestions
	}

	exam := &model.ActiveExam{
		UserID:      userID,
		QuestionIDs: datatypes.JSONSlice[uint](sampleIDs(ids, n, s.intn)),
		StartedAt:   time.Now(),
	}
	created, err := exams.CreateActiveExamIfAbsent(ctx, exam)
	if err != nil {
		return nil, err
	}
	if !created {
		// 并发开考，以先写入的记录为准
		return exams.FindActiveExam(ctx, userID)
	}
	return exam, nil
}

// sampleIDs 不放回随机抽取 n 个 id（部分 Fisher-Yates）
func sampleIDs(ids []uint, n int, intn func(int) int) []uint {
	pool := append([]uint(nil), ids...)
	for i := 0; i < n; i++ {
		j := i + intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

func buildPaper(exam *model.ActiveExam, byID map[uint]*model.Question, duration int) *ExamPaper {
	paper := &ExamPaper{
		Questions: make([]ExamQuestion, 0, len(exam.QuestionIDs)),
		Duration:  duration,
		StartedAt: exam.StartedAt,
	}
	for _, id := range exam.QuestionIDs {
		q, ok := byID[id]
		if !ok {
			continue
		}
		paper.Questions = append(paper.Questions, ExamQuestion{
			ID:       q.ID,
			Question: q.Question,
			Options:  q.Options(),
		})
	}
	return paper
}

// Submit 评分并写入成绩；同一事务内删除进行中的考试并置 attempted
func (s *ExamService) Submit(ctx context.Context, userID uint, answers map[string]string, ip string) (*SubmitResult, error) {
	var result *model.Result

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.UserRepo.WithTx(tx)
		exams := s.ExamRepo.WithTx(tx)

		exam, err := exams.FindActiveExam(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrExamNotStarted
			}
			return err
		}

		user, err := users.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrUserNotFound
			}
			return err
		}
		if user.Attempted {
			return util.ErrAlreadyAttempted
		}

		// 先删除进行中的考试，重复提交时只有一个能删到
		deleted, err := exams.DeleteActiveExam(ctx, userID)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return util.ErrExamNotStarted
		}

		byID, err := s.QuestionRepo.WithTx(tx).FindByIDs(ctx, exam.QuestionIDs)
		if err != nil {
			return err
		}

		score, rows := gradeAnswers(userID, exam.QuestionIDs, byID, answers)
		if err := exams.CreateAnswers(ctx, rows); err != nil {
			return fmt.Errorf("save answers: %w", err)
		}

		result = &model.Result{
			UserID:         userID,
			IPAddress:      ip,
			Score:          score,
			TotalQuestions: len(exam.QuestionIDs),
			StartedAt:      exam.StartedAt,
			SubmittedAt:    time.Now(),
		}
		if err := s.ResultRepo.WithTx(tx).Create(ctx, result); err != nil {
			return fmt.Errorf("save result: %w", err)
		}

		marked, err := users.MarkAttempted(ctx, userID)
		if err != nil {
			return err
		}
		if !marked {
			return util.ErrAlreadyAttempted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.ExamSubmitted.Inc()
	if result.TotalQuestions > 0 {
		monitoring.ExamScoreRatio.Observe(float64(result.Score) / float64(result.TotalQuestions))
	}
	logger.Log.Info("User submitted exam",
		zap.Uint("user_id", userID),
		zap.Int("score", result.Score),
		zap.Int("total", result.TotalQuestions),
		zap.String("ip", ip),
	)
	s.Monitor.Publish(ctx, MonitorEvent{
		Type:   EventExamSubmitted,
		UserID: userID,
		IP:     ip,
		Data:   map[string]interface{}{"score": result.Score, "total": result.TotalQuestions},
	})

	return &SubmitResult{Score: result.Score, Total: result.TotalQuestions}, nil
}

// gradeAnswers 逐题比对选项字母；未作答记为空，题目已被删除的不得分
func gradeAnswers(userID uint, ids []uint, byID map[uint]*model.Question, answers map[string]string) (int, []model.Answer) {
	score := 0
	rows := make([]model.Answer, 0, len(ids))
	for _, id := range ids {
		selected := answers[strconv.FormatUint(uint64(id), 10)]

		if q, ok := byID[id]; ok && selected == q.CorrectAnswer {
			score++
		}

		stored := selected
		if len(stored) > model.MaxSelectedAnswerLen {
			stored = stored[:model.MaxSelectedAnswerLen]
		}
		rows = append(rows, model.Answer{
			UserID:         userID,
			QuestionID:     id,
			SelectedAnswer: stored,
		})
	}
	return score, rows
}

func (s *ExamService) Status(ctx context.Context, userID uint) (*ExamStatus, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	settings, err := s.SettingRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	status := &ExamStatus{
		Attempted: user.Attempted,
		Duration:  settings.DurationMinutes,
	}

	exam, err := s.ExamRepo.FindActiveExam(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if exam != nil {
		status.Started = true
		startedAt := exam.StartedAt
		status.StartedAt = &startedAt
	}
	return status, nil
}

func (s *ExamService) RecordTabSwitch(ctx context.Context, userID uint, count int, ip string) error {
	if count < 0 {
		return util.ErrInvalidInput
	}

	event := &model.TabSwitchEvent{
		UserID:      userID,
		IPAddress:   ip,
		SwitchCount: count,
		Timestamp:   time.Now(),
	}
	if err := s.TabRepo.Create(ctx, event); err != nil {
		return err
	}

	monitoring.TabSwitchEvents.Inc()
	logger.Log.Warn("Tab switch detected",
		zap.Uint("user_id", userID),
		zap.Int("count", count),
		zap.String("ip", ip),
	)
	s.Monitor.Publish(ctx, MonitorEvent{
		Type:   EventTabSwitch,
		UserID: userID,
		IP:     ip,
		Data:   map[string]interface{}{"count": count},
	})
	return nil
}

func (s *ExamService) TabSwitchCount(ctx context.Context, userID uint) (int, error) {
	return s.TabRepo.MaxCount(ctx, userID)
}
