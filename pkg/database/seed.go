package database

import (
	"errors"
	"lan_exam_backend/internal/model"
	"lan_exam_backend/internal/util"
	"log"

	"gorm.io/gorm"
)

var sampleQuestions = []model.Question{
	{Question: "What is the time complexity of binary search?", OptionA: "O(n)", OptionB: "O(log n)", OptionC: "O(n^2)", OptionD: "O(1)", CorrectAnswer: "B"},
	{Question: "Which data structure uses LIFO?", OptionA: "Queue", OptionB: "Stack", OptionC: "Array", OptionD: "Tree", CorrectAnswer: "B"},
	{Question: "What does HTML stand for?", OptionA: "Hyper Text Markup Language", OptionB: "High Tech Modern Language", OptionC: "Home Tool Markup Language", OptionD: "Hyperlinks and Text Markup Language", CorrectAnswer: "A"},
	{Question: "Which language is used for web apps?", OptionA: "PHP", OptionB: "Python", OptionC: "JavaScript", OptionD: "All of the above", CorrectAnswer: "D"},
	{Question: "What is the output of 2**3 in Python?", OptionA: "6", OptionB: "8", OptionC: "9", OptionD: "5", CorrectAnswer: "B"},
	{Question: "Which is not a programming language?", OptionA: "Python", OptionB: "Java", OptionC: "HTML", OptionD: "C++", CorrectAnswer: "C"},
	{Question: "What does CSS stand for?", OptionA: "Cascading Style Sheets", OptionB: "Computer Style Sheets", OptionC: "Creative Style Sheets", OptionD: "Colorful Style Sheets", CorrectAnswer: "A"},
	{Question: "Which symbol is used for comments in Python?", OptionA: "//", OptionB: "#", OptionC: "/*", OptionD: "<!--", CorrectAnswer: "B"},
	{Question: "What is the default port for HTTP?", OptionA: "443", OptionB: "8080", OptionC: "80", OptionD: "3000", CorrectAnswer: "C"},
	{Question: "Which is a NoSQL database?", OptionA: "MySQL", OptionB: "PostgreSQL", OptionC: "MongoDB", OptionD: "Oracle", CorrectAnswer: "C"},
	{Question: "What does API stand for?", OptionA: "Application Programming Interface", OptionB: "Advanced Programming Interface", OptionC: "Application Process Interface", OptionD: "Automated Programming Interface", CorrectAnswer: "A"},
	{Question: "Which is not a JavaScript framework?", OptionA: "React", OptionB: "Angular", OptionC: "Django", OptionD: "Vue", CorrectAnswer: "C"},
	{Question: "What is Git used for?", OptionA: "Version control", OptionB: "Database management", OptionC: "Web hosting", OptionD: "Testing", CorrectAnswer: "A"},
	{Question: "Which HTTP method is used to update data?", OptionA: "GET", OptionB: "POST", OptionC: "PUT", OptionD: "DELETE", CorrectAnswer: "C"},
	{Question: "What does SQL stand for?", OptionA: "Structured Query Language", OptionB: "Simple Query Language", OptionC: "Standard Query Language", OptionD: "System Query Language", CorrectAnswer: "A"},
}

var sampleStudents = []string{"student1", "student2", "student3", "student4", "student5"}

const samplePassword = "pass123"

// SeedSample 插入示例题目和学生，已存在的跳过
func SeedSample(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, q := range sampleQuestions {
			var count int64
			if err := tx.Model(&model.Question{}).Where("question = ?", q.Question).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			q := q
			if err := tx.Create(&q).Error; err != nil {
				return err
			}
		}

		hashed, err := util.HashPassword(samplePassword)
		if err != nil {
			return err
		}
		for _, username := range sampleStudents {
			var existing model.User
			err := tx.Where("username = ?", username).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			student := model.User{Username: username, Password: hashed, Role: model.Student}
			if err := tx.Create(&student).Error; err != nil {
				return err
			}
		}

		log.Printf("Sample data added: %d questions, students %v (password %s)", len(sampleQuestions), sampleStudents, samplePassword)
		return nil
	})
}
