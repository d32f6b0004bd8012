package cli

import (
	"io"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/noah-isme/student-registry/internal/database"
	"github.com/noah-isme/student-registry/internal/repository"
	"github.com/noah-isme/student-registry/internal/service"
)

type services struct {
	db        *gorm.DB
	lifecycle service.LifecycleService
	reconcile service.ReconcileService
}

func (s *services) Close() error {
	return database.Close(s.db)
}

// openServices connects to the store named by --db and builds the services
// the commands operate through, so CLI changes land in the activity log.
func openServices(opts *RootOptions, errOut io.Writer) (*services, error) {
	db, err := database.Connect(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, WrapExitError(ExitCommandError, "failed to migrate database", err)
	}

	logger := opts.logger(errOut).With().Str("component", "registryctl").Logger()
	validate := validator.New(validator.WithRequiredStructEnabled())

	store := repository.NewRecordStore(db)
	activity := service.NewActivityService(repository.NewActivityLogRepository(db), validate, nil, logger)

	return &services{
		db:        db,
		lifecycle: service.NewLifecycleService(store, validate, activity, logger, service.LifecycleOptions{}),
		reconcile: service.NewReconcileService(store, activity, logger),
	}, nil
}
