package model

// swagger:model Course
type Course struct {
	BaseModel
	Code  string `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Title string `gorm:"size:255;not null" json:"title"`
}

func (Course) TableName() string {
	return "courses"
}

// Enrollment 学生选课记录，由选课模块维护，此处只读
type Enrollment struct {
	BaseModel
	CourseID  uint `gorm:"uniqueIndex:idx_enrollment_course_student;type:bigint unsigned;not null" json:"courseId"`
	StudentID uint `gorm:"uniqueIndex:idx_enrollment_course_student;type:bigint unsigned;not null" json:"studentId"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
