package main

import (
	"context"
	"flag"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/medicode/medicode-api/internal/config"
	"github.com/medicode/medicode-api/internal/model"
	"github.com/medicode/medicode-api/internal/repository/postgres"
	auditService "github.com/medicode/medicode-api/internal/service/audit"
	codeService "github.com/medicode/medicode-api/internal/service/code"
	notificationService "github.com/medicode/medicode-api/internal/service/notification"
	patientService "github.com/medicode/medicode-api/internal/service/patient"
	validationService "github.com/medicode/medicode-api/internal/service/validation"
	apperrors "github.com/medicode/medicode-api/pkg/errors"
	"github.com/medicode/medicode-api/pkg/logger"
	"github.com/medicode/medicode-api/pkg/metrics"
	"github.com/medicode/medicode-api/pkg/security"
)

// catalogSeed mirrors the master dataset used in staging: ICD-11, CPT
// and HCPCS entries. NAMASTE has no seed entries yet.
var catalogSeed = []*model.CreateMedicalCodeRequest{
	{Code: "1A00", Description: "COVID-19, virus identified", CodeSystem: "ICD-11", Category: "Infectious diseases"},
	{Code: "1A01", Description: "COVID-19, virus not identified", CodeSystem: "ICD-11", Category: "Infectious diseases"},
	{Code: "BA00", Description: "Hypertension", CodeSystem: "ICD-11", Category: "Cardiovascular diseases"},
	{Code: "BA01", Description: "Ischaemic heart diseases", CodeSystem: "ICD-11", Category: "Cardiovascular diseases"},
	{Code: "5A11", Description: "Type 2 diabetes mellitus", CodeSystem: "ICD-11", Category: "Endocrine diseases"},
	{Code: "5A10", Description: "Type 1 diabetes mellitus", CodeSystem: "ICD-11", Category: "Endocrine diseases"},
	{Code: "CA00", Description: "Malignant neoplasms of lip, oral cavity and pharynx", CodeSystem: "ICD-11", Category: "Neoplasms"},
	{Code: "CA01", Description: "Malignant neoplasms of digestive organs", CodeSystem: "ICD-11", Category: "Neoplasms"},
	{Code: "8A00", Description: "Dementia", CodeSystem: "ICD-11", Category: "Mental disorders"},
	{Code: "8A01", Description: "Schizophrenia", CodeSystem: "ICD-11", Category: "Mental disorders"},

	{Code: "99213", Description: "Office or other outpatient visit for the evaluation and management of an established patient", CodeSystem: "CPT", Category: "Evaluation and Management"},
	{Code: "99214", Description: "Office or other outpatient visit for the evaluation and management of an established patient", CodeSystem: "CPT", Category: "Evaluation and Management"},
	{Code: "99203", Description: "Office or other outpatient visit for the evaluation and management of a new patient", CodeSystem: "CPT", Category: "Evaluation and Management"},
	{Code: "99204", Description: "Office or other outpatient visit for the evaluation and management of a new patient", CodeSystem: "CPT", Category: "Evaluation and Management"},
	{Code: "90471", Description: "Immunization administration", CodeSystem: "CPT", Category: "Medicine"},
	{Code: "90472", Description: "Immunization administration", CodeSystem: "CPT", Category: "Medicine"},
	{Code: "71045", Description: "Radiologic examination, chest; single view", CodeSystem: "CPT", Category: "Radiology"},
	{Code: "71046", Description: "Radiologic examination, chest; 2 views", CodeSystem: "CPT", Category: "Radiology"},
	{Code: "85025", Description: "Blood count; complete (CBC), automated", CodeSystem: "CPT", Category: "Pathology and Laboratory"},
	{Code: "80053", Description: "Comprehensive metabolic panel", CodeSystem: "CPT", Category: "Pathology and Laboratory"},

	{Code: "J3420", Description: "Injection, vitamin B-12 cyanocobalamin, up to 1000 mcg", CodeSystem: "HCPCS", Category: "Drugs"},
	{Code: "G0008", Description: "Administration of influenza virus vaccine", CodeSystem: "HCPCS", Category: "Preventive Services"},
	{Code: "G0009", Description: "Administration of pneumococcal vaccine", CodeSystem: "HCPCS", Category: "Preventive Services"},
}

var userSeed = []struct {
	username string
	email    string
	role     model.UserRole
}{
	{"doctor1", "doctor@medicode.com", model.RoleDoctor},
	{"admin1", "admin@medicode.com", model.RoleAdmin},
	{"coder1", "coder@medicode.com", model.RoleMedicalCoder},
	{"auditor1", "auditor@medicode.com", model.RoleAuditor},
}

const seedPassword = "password123"

// samplePatients drive the submission flow during seeding so the
// database starts with a realistic mix of approved and rejected items.
var samplePatients = []struct {
	name       string
	age        int
	gender     string
	patientID  string
	diagnoses  []model.SubmitClinicalItemRequest
	treatments []model.SubmitClinicalItemRequest
}{
	{
		name: "Asha Raman", age: 46, gender: "female", patientID: "P10001",
		diagnoses: []model.SubmitClinicalItemRequest{
			{Code: "1A00", CodeSystem: "ICD-11", Description: "Confirmed COVID-19 infection"},
			{Code: "BA00", CodeSystem: "ICD-11", Description: "Essential hypertension"},
		},
		treatments: []model.SubmitClinicalItemRequest{
			{Code: "99213", CodeSystem: "CPT", Description: "Established patient follow-up"},
		},
	},
	{
		name: "Vikram Shetty", age: 62, gender: "male", patientID: "P10002",
		diagnoses: []model.SubmitClinicalItemRequest{
			{Code: "5A11", CodeSystem: "ICD-11", Description: "Type 2 diabetes, routine review"},
			// Unknown code: lands as rejected with suggestions.
			{Code: "5A99", CodeSystem: "ICD-11", Description: "Unspecified endocrine disorder"},
		},
		treatments: []model.SubmitClinicalItemRequest{
			{Code: "80053", CodeSystem: "CPT", Description: "Metabolic panel"},
			{Code: "NAM001", CodeSystem: "NAMASTE", Description: "Ayurvedic consultation"},
		},
	},
	{
		name: "Meera Pillai", age: 34, gender: "female", patientID: "P10003",
		diagnoses: []model.SubmitClinicalItemRequest{
			{Code: "8A01", CodeSystem: "ICD-11", Description: "Schizophrenia, stable on medication"},
		},
		treatments: []model.SubmitClinicalItemRequest{
			{Code: "G0008", CodeSystem: "HCPCS", Description: "Seasonal influenza vaccination"},
		},
	},
}

func main() {
	clearData := flag.Bool("clear", false, "delete existing catalog and clinical data before seeding")
	withSamples := flag.Bool("with-samples", false, "also create sample patients with diagnoses and treatments")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(&logger.Config{
		Level:  logger.ParseLevel(cfg.Logging.Level),
		Pretty: true,
	})
	log.Logger = appLogger

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx := context.Background()

	if *clearData {
		if err := clearTables(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("failed to clear existing data")
		}
	}

	codeRepo := postgres.NewMedicalCodeRepository(db)
	catalog := codeService.NewService(codeRepo, cfg.Catalog.CacheTTL, appLogger)

	imported, err := catalog.Import(ctx, catalogSeed)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed medical codes")
	}
	log.Info().Int("imported", imported).Int("total", len(catalogSeed)).Msg("medical codes seeded")

	if err := seedUsers(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to seed users")
	}

	if *withSamples {
		if err := seedSamples(ctx, db, catalog, cfg); err != nil {
			log.Fatal().Err(err).Msg("failed to seed sample patients")
		}
	}

	log.Info().Msg("seeding complete")
}

func clearTables(ctx context.Context, db *sqlx.DB) error {
	log.Info().Msg("clearing existing data")
	// Child tables first so FK references drop cleanly.
	for _, table := range []string{"notifications", "validation_records", "diagnoses", "treatments", "reports", "patients", "medical_codes"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func seedUsers(ctx context.Context, db *sqlx.DB) error {
	users := postgres.NewUserRepository(db)
	hasher := security.NewBcryptHasher(0)

	hash, err := hasher.Hash(seedPassword)
	if err != nil {
		return err
	}

	for _, u := range userSeed {
		if existing, err := users.GetByUsername(ctx, u.username); err == nil && existing != nil {
			continue
		}

		user := &model.User{
			Base:         model.Base{ID: uuid.New()},
			Username:     u.username,
			Email:        u.email,
			Role:         u.role,
			PasswordHash: hash,
		}
		if err := users.Create(ctx, user); err != nil {
			if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrConflict {
				continue
			}
			return err
		}
		log.Info().Str("username", u.username).Str("role", string(u.role)).Msg("user created")
	}
	return nil
}

// seedSamples runs real submissions through the patient service so
// sample items carry proper statuses, suggestions and audit records.
func seedSamples(ctx context.Context, db *sqlx.DB, catalog *codeService.Service, cfg *config.Config) error {
	appLogger := log.Logger
	m := metrics.New("medicode", "seed")

	patientRepo := postgres.NewPatientRepository(db)
	diagnosisRepo := postgres.NewDiagnosisRepository(db)
	treatmentRepo := postgres.NewTreatmentRepository(db)
	recordRepo := postgres.NewValidationRecordRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	validator := validationService.NewService(catalog, m, appLogger, cfg.Catalog.SuggestionLimit)
	auditor := auditService.NewService(recordRepo, m, appLogger)
	// No broker or email during seeding; stored notifications suffice.
	notifier := notificationService.NewService(notificationRepo, nil, nil, m, appLogger)
	patients := patientService.NewService(patientRepo, diagnosisRepo, treatmentRepo, validator, auditor, notifier, appLogger)

	for _, sp := range samplePatients {
		p, err := patients.CreatePatient(ctx, &model.CreatePatientRequest{
			Name:      sp.name,
			Age:       sp.age,
			Gender:    sp.gender,
			PatientID: sp.patientID,
		})
		if err != nil {
			return err
		}

		// Seed submissions are system-originated: nil actor, no notifications.
		for i := range sp.diagnoses {
			if _, err := patients.AddDiagnosis(ctx, p.ID, &sp.diagnoses[i], nil); err != nil {
				return err
			}
		}
		for i := range sp.treatments {
			if _, err := patients.AddTreatment(ctx, p.ID, &sp.treatments[i], nil); err != nil {
				return err
			}
		}
		log.Info().Str("patient", sp.name).Msg("sample patient seeded")
	}
	return nil
}
