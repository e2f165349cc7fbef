package model

import (
	"strings"
	"time"
)

// Role is the closed set of account roles. Authorization is an allow-list
// check against these values; there is no hierarchy between them.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

func ParseRole(value string) (Role, bool) {
	switch Role(strings.TrimSpace(strings.ToLower(value))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleTeacher:
		return RoleTeacher, true
	case RoleStudent:
		return RoleStudent, true
	default:
		return "", false
	}
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// User is the credential record, kept in the document store. The password
// hash never leaves the server.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	Role         Role      `bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}

// Student is the role-scoped profile, one-to-one with a User id.
type Student struct {
	ID            int64     `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"userId"`
	StudentNumber string    `db:"student_number" json:"studentNumber"`
	Phone         string    `db:"phone" json:"phone"`
	Address       string    `db:"address" json:"address"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

type Teacher struct {
	ID         int64     `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"userId"`
	Phone      string    `db:"phone" json:"phone"`
	Department string    `db:"department" json:"department"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

type Class struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Subject   string    `db:"subject" json:"subject"`
	TeacherID int64     `db:"teacher_id" json:"teacherId"`
	Room      string    `db:"room" json:"room"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type Enrollment struct {
	ID         int64     `db:"id" json:"id"`
	ClassID    int64     `db:"class_id" json:"classId"`
	StudentID  int64     `db:"student_id" json:"studentId"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolledAt"`
}

type Assignment struct {
	ID          int64     `db:"id" json:"id"`
	ClassID     int64     `db:"class_id" json:"classId"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	DueAt       time.Time `db:"due_at" json:"dueAt"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

type Submission struct {
	ID           int64     `db:"id" json:"id"`
	AssignmentID int64     `db:"assignment_id" json:"assignmentId"`
	StudentID    int64     `db:"student_id" json:"studentId"`
	Content      string    `db:"content" json:"content"`
	Score        *float64  `db:"score" json:"score"`
	SubmittedAt  time.Time `db:"submitted_at" json:"submittedAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

type Grade struct {
	ID        int64     `db:"id" json:"id"`
	ClassID   int64     `db:"class_id" json:"classId"`
	StudentID int64     `db:"student_id" json:"studentId"`
	Term      string    `db:"term" json:"term"`
	Score     float64   `db:"score" json:"score"`
	Remark    string    `db:"remark" json:"remark"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type Attendance struct {
	ID        int64     `db:"id" json:"id"`
	ClassID   int64     `db:"class_id" json:"classId"`
	StudentID int64     `db:"student_id" json:"studentId"`
	Date      time.Time `db:"date" json:"date"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ActivityEntry is an audit line in the document store.
type ActivityEntry struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"userId"`
	Role      Role      `bson:"role" json:"role"`
	Action    string    `bson:"action" json:"action"`
	Detail    string    `bson:"detail" json:"detail"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}
