package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwangi2684/coachmarket/models"
)

type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) GetByID(id uuid.UUID) (*models.Course, error) {
	var course models.Course
	if err := r.db.First(&course, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) ListPublishedByCoach(coachID uuid.UUID) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.Where("coach_id = ? AND is_published = ?", coachID, true).Find(&courses).Error
	return courses, err
}
