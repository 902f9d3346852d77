package model

// 选项字母
const (
	OptionA = "A"
	OptionB = "B"
	OptionC = "C"
	OptionD = "D"
)

var OptionLetters = []string{OptionA, OptionB, OptionC, OptionD}

func IsOptionLetter(s string) bool {
	for _, l := range OptionLetters {
		if s == l {
			return true
		}
	}
	return false
}

// swagger:model Question
type Question struct {
	BaseModel
	Question      string `gorm:"size:500;not null" json:"question"`
	OptionA       string `gorm:"column:option_a;size:200;not null" json:"option_a"`
	OptionB       string `gorm:"column:option_b;size:200;not null" json:"option_b"`
	OptionC       string `gorm:"column:option_c;size:200;not null" json:"option_c"`
	OptionD       string `gorm:"column:option_d;size:200;not null" json:"option_d"`
	CorrectAnswer string `gorm:"size:1;not null" json:"correct_answer"`
}

func (Question) TableName() string {
	return "questions"
}

// Options 按字母返回四个选项
func (q *Question) Options() map[string]string {
	return map[string]string{
		OptionA: q.OptionA,
		OptionB: q.OptionB,
		OptionC: q.OptionC,
		OptionD: q.OptionD,
	}
}
