package main

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Bandi-Aditya/OfflineExam/internal/config"
	"github.com/Bandi-Aditya/OfflineExam/internal/database"
	"github.com/Bandi-Aditya/OfflineExam/internal/logger"
	"github.com/Bandi-Aditya/OfflineExam/internal/model"
	"github.com/Bandi-Aditya/OfflineExam/internal/repository"
)

// Seeds a batch of demo students for lab setups. Every account gets the
// password "welcome1".
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	studentRepo := repository.NewStudentRepository(pool)

	names := []string{
		"Aarav Sharma", "Diya Patel", "Vihaan Reddy", "Ananya Iyer", "Arjun Nair",
		"Ishita Gupta", "Kabir Singh", "Meera Joshi", "Rohan Verma", "Sanya Kapoor",
		"Aditya Rao", "Priya Menon", "Kunal Desai", "Nisha Agarwal", "Varun Malhotra",
		"Tanvi Kulkarni", "Yash Choudhary", "Pooja Bhat", "Nikhil Saxena", "Riya Sinha",
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("welcome1"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash seed password")
	}

	fmt.Printf("=== Seeding %d Students ===\n", len(names))

	successCount := 0
	for i, name := range names {
		student := &model.Student{
			StudentCode:  fmt.Sprintf("STU%04d", i+1),
			Name:         name,
			Email:        fmt.Sprintf("student%d@example.edu", i+1),
			PasswordHash: string(hash),
		}

		if err := studentRepo.Create(ctx, student); err != nil {
			fmt.Printf("Error creating student %s (%s): %v\n", student.Name, student.StudentCode, err)
			continue
		}
		successCount++
		if (i+1)%10 == 0 {
			fmt.Printf("Created %d students...\n", i+1)
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d students.\n", successCount, len(names))
}
