package source

import (
	"github.com/darasa-labs/darasa/internal/curriculum"
	"github.com/darasa-labs/darasa/internal/docstore"
)

// Path layout of the curriculum hierarchy inside the document store:
// grades/<g>/units/<u>/lessons/<l>/sections/<s>/quizzes/<q>.

func GradesCollection() string { return "grades" }

func GradePath(gradeID string) string {
	return docstore.Join(GradesCollection(), gradeID)
}

func UnitsCollection(gradeID string) string {
	return docstore.Join(GradePath(gradeID), "units")
}

func UnitPath(gradeID, unitID string) string {
	return docstore.Join(UnitsCollection(gradeID), unitID)
}

func LessonsCollection(gradeID, unitID string) string {
	return docstore.Join(UnitPath(gradeID, unitID), "lessons")
}

func LessonPath(gradeID, unitID, lessonID string) string {
	return docstore.Join(LessonsCollection(gradeID, unitID), lessonID)
}

func SectionsCollection(gradeID, unitID, lessonID string) string {
	return docstore.Join(LessonPath(gradeID, unitID, lessonID), "sections")
}

func SectionPath(gradeID, unitID, lessonID, sectionID string) string {
	return docstore.Join(SectionsCollection(gradeID, unitID, lessonID), sectionID)
}

func QuizzesCollection(gradeID, unitID, lessonID, sectionID string) string {
	return docstore.Join(SectionPath(gradeID, unitID, lessonID, sectionID), "quizzes")
}

func QuizPath(gradeID, unitID, lessonID, sectionID, quizID string) string {
	return docstore.Join(QuizzesCollection(gradeID, unitID, lessonID, sectionID), quizID)
}

// EncodeGrade builds the stored document for a grade.
func EncodeGrade(g curriculum.Grade) docstore.Document {
	return docstore.Document{"id": g.ID, "name": g.Name, "description": g.Description}
}

// EncodeUnit builds the stored document for a unit.
func EncodeUnit(u curriculum.Unit) docstore.Document {
	return docstore.Document{"id": u.ID, "gradeId": u.GradeID, "number": u.Number}
}

// EncodeLesson builds the stored document for a lesson.
func EncodeLesson(l curriculum.Lesson) docstore.Document {
	return docstore.Document{
		"id": l.ID, "gradeId": l.GradeID, "unitId": l.UnitID,
		"title": l.Title, "order": l.Order,
	}
}

// EncodeSection builds the stored document for a section.
func EncodeSection(s curriculum.Section) docstore.Document {
	return docstore.Document{
		"id": s.ID, "gradeId": s.GradeID, "unitId": s.UnitID,
		"lessonId": s.LessonID, "title": s.Title,
	}
}
