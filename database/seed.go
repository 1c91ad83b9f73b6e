package database

import (
	"log"

	"github.com/Tg-307/Project---1-Campus-Connect/model"
	"gorm.io/gorm"
)

// SeedInstitutes inserts a starter set of institutes for local
// development. Existing codes are left untouched.
func SeedInstitutes(db *gorm.DB) error {
	institutes := []model.Institute{
		{Name: "Indian Institute of Information Technology Guwahati", Code: "IIITG"},
		{Name: "Indian Institute of Technology Guwahati", Code: "IITG"},
		{Name: "Gauhati University", Code: "GU"},
	}

	for _, institute := range institutes {
		var existing model.Institute
		err := db.Where("code = ?", institute.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		if err := db.Create(&institute).Error; err != nil {
			return err
		}
		log.Printf("Seeded institute %s (%s)", institute.Name, institute.Code)
	}

	return nil
}
