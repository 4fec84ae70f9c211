package model

import "time"

// Student represents a student user.
type Student struct {
	ID           int       `json:"id"`
	StudentCode  string    `json:"student_code"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	MobileNumber string    `json:"mobile_number,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StudentLoginRequest is the payload for student password authentication.
type StudentLoginRequest struct {
	StudentCode string `json:"student_code" binding:"required,min=3,max=32"`
	Password    string `json:"password" binding:"required,min=4,max=128"`
}

// SendOTPRequest asks for a one-time password to be issued for a student.
type SendOTPRequest struct {
	StudentCode string `json:"student_code" binding:"required,min=3,max=32"`
}

// OTPLoginRequest is the payload for OTP authentication.
type OTPLoginRequest struct {
	StudentCode string `json:"student_code" binding:"required,min=3,max=32"`
	OTP         string `json:"otp" binding:"required,len=6,numeric"`
}

// StudentLoginResponse is returned after successful student login.
type StudentLoginResponse struct {
	Token   string  `json:"token"`
	Student Student `json:"student"`
}

// CreateStudentRequest is the payload for registering a new student.
type CreateStudentRequest struct {
	StudentCode  string `json:"student_code" binding:"required,min=3,max=32"`
	Name         string `json:"name" binding:"required,min=2,max=100"`
	Email        string `json:"email" binding:"required,email"`
	MobileNumber string `json:"mobile_number" binding:"omitempty,max=20"`
	Password     string `json:"password" binding:"required,min=6,max=128"`
}

// UpdateStudentRequest is the payload for updating an existing student.
type UpdateStudentRequest struct {
	StudentCode  string  `json:"student_code" binding:"omitempty,min=3,max=32"`
	Name         string  `json:"name" binding:"omitempty,min=2,max=100"`
	Email        string  `json:"email" binding:"omitempty,email"`
	MobileNumber *string `json:"mobile_number" binding:"omitempty,max=20"`
	Password     string  `json:"password" binding:"omitempty,min=6,max=128"`
}
