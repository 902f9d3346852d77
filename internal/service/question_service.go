package service

import (
	"context"
	"lan_exam_backend/internal/model"
	"lan_exam_backend/internal/repository"
	"lan_exam_backend/internal/util"
	"lan_exam_backend/pkg/logger"

	"go.uber.org/zap"
)

type QuestionService struct {
	Repo *repository.QuestionRepository
}

func NewQuestionService(repo *repository.QuestionRepository) *QuestionService {
	return &QuestionService{Repo: repo}
}

// swagger:model QuestionReq
type QuestionReq struct {
	Question      string `json:"question"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectAnswer string `json:"correct_answer"`
}

// normalize 去空白截断后校验，所有字段必填，答案只能是 A-D
func (r QuestionReq) normalize() (*model.Question, error) {
	q := &model.Question{
		Question:      util.CleanInput(r.Question, util.MaxStemLen),
		OptionA:       util.CleanInput(r.OptionA, util.MaxOptionLen),
		OptionB:       util.CleanInput(r.OptionB, util.MaxOptionLen),
		OptionC:       util.CleanInput(r.OptionC, util.MaxOptionLen),
		OptionD:       util.CleanInput(r.OptionD, util.MaxOptionLen),
		CorrectAnswer: r.CorrectAnswer,
	}
	if q.Question == "" || q.OptionA == "" || q.OptionB == "" || q.OptionC == "" || q.OptionD == "" || q.CorrectAnswer == "" {
		return nil, util.ErrInvalidInput
	}
	if !model.IsOptionLetter(q.CorrectAnswer) {
		return nil, util.ErrInvalidAnswer
	}
	return q, nil
}

func (s *QuestionService) List(ctx context.Context) ([]model.Question, error) {
	return s.Repo.ListAll(ctx)
}

func (s *QuestionService) Create(ctx context.Context, admin string, req QuestionReq) (*model.Question, error) {
	q, err := req.normalize()
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, q); err != nil {
		return nil, err
	}
	logger.Log.Info("Admin added question", zap.String("admin", admin), zap.Uint("question_id", q.ID))
	return q, nil
}

func (s *QuestionService) Update(ctx context.Context, admin string, id uint, req QuestionReq) (*model.Question, error) {
	q, err := req.normalize()
	if err != nil {
		return nil, err
	}
	q.ID = id

	affected, err := s.Repo.Update(ctx, q)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// 内容未变化时部分驱动返回 0 行，再确认一次是否存在
		if _, err := s.Repo.FindByID(ctx, id); err != nil {
			return nil, util.ErrQuestionNotFound
		}
	}
	logger.Log.Info("Admin updated question", zap.String("admin", admin), zap.Uint("question_id", id))
	return s.Repo.FindByID(ctx, id)
}

func (s *QuestionService) Delete(ctx context.Context, admin string, id uint) error {
	affected, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return util.ErrQuestionNotFound
	}
	logger.Log.Info("Admin deleted question", zap.String("admin", admin), zap.Uint("question_id", id))
	return nil
}
