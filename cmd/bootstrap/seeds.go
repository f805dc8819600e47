package bootstrap

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/code-100-precent/TableEcho/internal/models"
	"github.com/code-100-precent/TableEcho/pkg/logger"
)

// SeedService writes demo data for non-production environments
type SeedService struct {
	db *gorm.DB
}

// SeedAll runs every seeder, each one is idempotent
func (s *SeedService) SeedAll() error {
	if err := s.seedFAQ(); err != nil {
		return err
	}
	return s.seedDemoCustomer()
}

// seedFAQ inserts a starter FAQ set so the agent can answer common questions out of the box
func (s *SeedService) seedFAQ() error {
	var count int64
	if err := s.db.Model(&models.FAQEntry{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	entries := []models.FAQEntry{
		{
			Question: "Do you have parking?",
			Answer:   "Yes, we have free parking behind the building.",
			Keywords: "parking,car,garage",
			Enabled:  true,
		},
		{
			Question: "Do you have vegetarian options?",
			Answer:   "We have a full vegetarian menu and several vegan dishes.",
			Keywords: "vegetarian,vegan,dietary,gluten",
			Enabled:  true,
		},
		{
			Question: "Is there a dress code?",
			Answer:   "Smart casual. No dress code for lunch.",
			Keywords: "dress,code,attire,formal",
			Enabled:  true,
		},
		{
			Question: "Are dogs allowed?",
			Answer:   "Dogs are welcome on the patio.",
			Keywords: "dog,pet,animal",
			Enabled:  true,
		},
	}
	for i := range entries {
		if err := models.CreateFAQEntry(s.db, &entries[i]); err != nil {
			return err
		}
	}
	logger.Info("seeded faq entries", zap.Int("count", len(entries)))
	return nil
}

// seedDemoCustomer creates one known caller for local testing
func (s *SeedService) seedDemoCustomer() error {
	_, err := models.GetCustomerByPhone(s.db, "+15550001111")
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	customer, err := models.GetOrCreateCustomer(s.db, "+15550001111")
	if err != nil {
		return err
	}
	if err := models.UpdateCustomerName(s.db, customer.ID, "Maria"); err != nil {
		return err
	}
	logger.Info("seeded demo customer", zap.String("phone", customer.Phone))
	return nil
}
