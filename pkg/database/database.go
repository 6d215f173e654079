package database

import (
	"fmt"
	"log"

	"github.com/faizerlangga999/ProjectCastleBeta/internal/config"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the connection and, when migrate is set, runs the
// schema migration and seeds the default categories.
func InitDB(cfg *config.DatabaseConfig, migrate bool) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if migrate {
		err = db.AutoMigrate(
			&model.User{},
			&model.Category{},
			&model.Quiz{},
			&model.Question{},
			&model.QuizAttempt{},
			&model.Thread{},
			&model.Comment{},
			&model.ThreadLike{},
			&model.Lesson{},
		)

		if err != nil {
			return nil, err
		}

		log.Println("Database migration completed")

		// Seed the default quiz categories on an empty install.
		var count int64
		db.Model(&model.Category{}).Count(&count)
		if count == 0 {
			defaultCategories := []string{
				"Matematika",
				"Fisika",
				"Kimia",
				"Biologi",
				"Bahasa Inggris",
			}
			for _, name := range defaultCategories {
				db.Create(&model.Category{Name: name})
			}
		}
	}

	return db, nil
}
