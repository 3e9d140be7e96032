package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/relabs-tech/folio/core"
	"github.com/relabs-tech/folio/core/access"
	"github.com/relabs-tech/folio/core/backend"
	"github.com/relabs-tech/folio/core/backend/kss"
	"github.com/relabs-tech/folio/core/config"
	"github.com/relabs-tech/folio/core/logger"
	"github.com/relabs-tech/folio/core/notify"
	"github.com/relabs-tech/folio/core/schema"
	"github.com/relabs-tech/folio/core/store/driver"
)

const shutdownTimeout = 15 * time.Second

func main() {
	service, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger.InitLogger(logger.ParseLevel(service.LogLevel))
	rlog := logger.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	selection, err := driver.Open(ctx, service)
	if err != nil {
		rlog.WithError(err).Fatalln("cannot open store")
	}
	defer selection.Store.Close()

	notifier, closeNotifier, err := notifierFor(service)
	if err != nil {
		rlog.WithError(err).Fatalln("cannot create notifier")
	}
	defer closeNotifier()

	router := mux.NewRouter()
	uploads, err := kss.New(ctx, uploadConfiguration(service), router)
	if err != nil {
		rlog.WithError(err).Fatalln("cannot create upload driver")
	}

	b := backend.New(&backend.Builder{
		Store:            selection.Store,
		Degraded:         selection.Degraded,
		Router:           router,
		Issuer:           access.NewIssuer(jwtSecret(service), service.JWTTTL),
		Validator:        schema.MustNewPortfolio(service.SkillLevels),
		Notifier:         notifier,
		Uploads:          uploads,
		RefreshTokenTTL:  service.RefreshTokenTTL,
		CORSOrigins:      service.CORSOrigins,
		RateLimit:        backend.RateLimit{Window: service.RateLimitWindow, Max: service.RateLimitMax},
		ContactRateLimit: backend.RateLimit{Window: service.ContactRateLimitWindow, Max: service.ContactRateLimitMax},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", service.Port),
		Handler:           b,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		rlog.Infoln("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			rlog.WithError(err).Errorln("cannot shut down http server")
		}
	}()

	rlog.Infof("store: %s (degraded: %t), uploads: %s", selection.Store.Driver(), selection.Degraded, uploads.Name())
	rlog.Infof("listen on port :%d", service.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		rlog.WithError(err).Errorln("http server failed")
	}
	b.Close()
}

// notifierFor returns the notifiers enabled in service, notify.Nop if there are none
func notifierFor(service *config.Service) (core.Notifier, func(), error) {
	var notifiers notify.Multi
	closers := []func(){}
	if service.MailEnabled() {
		m, err := notify.NewMail(notify.MailConfig{
			Host:     service.EmailHost,
			Port:     service.EmailPort,
			Username: service.EmailUser,
			Password: service.EmailPass,
			From:     service.Sender(),
			To:       service.AdminEmail,
		})
		if err != nil {
			return nil, nil, err
		}
		notifiers = append(notifiers, m)
	} else {
		logger.Default().Warnln("EMAIL_USER or EMAIL_PASS not set, contact emails are disabled")
	}
	if service.KafkaEnabled() {
		k := notify.NewKafka(service.KafkaBrokers, service.KafkaTopic)
		notifiers = append(notifiers, k)
		closers = append(closers, func() { k.Close() })
	}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	if len(notifiers) == 0 {
		return notify.Nop{}, closeAll, nil
	}
	return notifiers, closeAll, nil
}

// jwtSecret returns the configured secret or a random one. Tokens signed with
// a random secret do not survive a restart.
func jwtSecret(service *config.Service) []byte {
	if service.JWTSecret != "" {
		return []byte(service.JWTSecret)
	}
	logger.Default().Warnln("JWT_SECRET not set, using a random secret")
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic(err)
	}
	return secret
}

func uploadConfiguration(service *config.Service) kss.Configuration {
	switch service.UploadDriver {
	case config.UploadCloudinary:
		return kss.Configuration{
			DriverType: kss.DriverTypeCloudinary,
			CloudinaryConfiguration: &kss.CloudinaryConfiguration{
				CloudName: service.CloudinaryCloudName,
				APIKey:    service.CloudinaryAPIKey,
				APISecret: service.CloudinaryAPISecret,
				Folder:    service.UploadFolder,
			},
		}
	case config.UploadS3:
		return kss.Configuration{
			DriverType: kss.DriverTypeAWSS3,
			S3Configuration: &kss.S3Configuration{
				AWSBucketName: service.AWSBucket,
				AWSRegion:     service.AWSRegion,
				AccessID:      service.AWSAccessKeyID,
				AccessKey:     service.AWSSecretAccessKey,
				KeyPrefix:     service.UploadFolder,
			},
		}
	}
	return kss.Configuration{
		DriverType: kss.DriverTypeLocal,
		LocalConfiguration: &kss.LocalConfiguration{
			BasePath:  service.UploadDir,
			PublicURL: service.PublicURL,
		},
	}
}
