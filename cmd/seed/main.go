package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"travel-service/config"
	"travel-service/internal/models"
	"travel-service/internal/store"
	"travel-service/internal/util"
)

type seedOptions struct {
	hosts    int
	guests   int
	listings int
	password string
	seed     int64
}

func main() {
	opts := seedOptions{}

	rootCmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the database with sample users, listings, bookings and reviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
	rootCmd.Flags().IntVar(&opts.hosts, "hosts", 2, "number of host accounts")
	rootCmd.Flags().IntVar(&opts.guests, "guests", 2, "number of guest accounts")
	rootCmd.Flags().IntVar(&opts.listings, "listings", 10, "number of listings, each with one booking and one review")
	rootCmd.Flags().StringVar(&opts.password, "password", "pass123", "password given to every seeded account")
	rootCmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed (0 picks one from the clock)")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	firstNames = []string{"Abebe", "Hanna", "Selam", "Dawit", "Meron", "Yonas", "Liya", "Kebede"}
	lastNames  = []string{"Tesfaye", "Girma", "Alemu", "Bekele", "Haile", "Mekonnen"}
	cities     = []string{"Addis Ababa", "Bahir Dar", "Gondar", "Hawassa", "Lalibela", "Bishoftu", "Adama"}
	comments   = []string{
		"Clean rooms and a friendly host.",
		"Great location, would stay again.",
		"A little noisy at night but good value.",
		"Exactly as described.",
		"Lovely view from the balcony.",
	}
)

func run(ctx context.Context, opts seedOptions) error {
	if opts.hosts < 1 || opts.guests < 1 {
		return fmt.Errorf("need at least one host and one guest")
	}

	cfg := config.Load()
	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer util.SyncLogger()
	logger := util.GetLogger()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if opts.seed == 0 {
		opts.seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(opts.seed))

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := func(role models.Role, n int) (*models.User, error) {
		first := firstNames[rng.Intn(len(firstNames))]
		last := lastNames[rng.Intn(len(lastNames))]
		suffix := uuid.New().String()[:6]
		phone := fmt.Sprintf("+2519%08d", rng.Intn(100000000))
		u := &models.User{
			Username:     fmt.Sprintf("%s_%s%d_%s", role, first, n, suffix),
			FirstName:    first,
			LastName:     last,
			Email:        fmt.Sprintf("%s.%s.%s@example.com", first, last, suffix),
			PhoneNumber:  &phone,
			Role:         role,
			PasswordHash: string(hash),
		}
		if err := db.CreateUser(ctx, u); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", role, err)
		}
		return u, nil
	}

	hosts := make([]*models.User, 0, opts.hosts)
	for i := 0; i < opts.hosts; i++ {
		u, err := newUser(models.RoleHost, i+1)
		if err != nil {
			return err
		}
		hosts = append(hosts, u)
	}
	guests := make([]*models.User, 0, opts.guests)
	for i := 0; i < opts.guests; i++ {
		u, err := newUser(models.RoleGuest, i+1)
		if err != nil {
			return err
		}
		guests = append(guests, u)
	}
	admin, err := newUser(models.RoleAdmin, 1)
	if err != nil {
		return err
	}

	statuses := []models.BookingStatus{
		models.BookingStatusPending,
		models.BookingStatusConfirmed,
		models.BookingStatusCancelled,
	}
	today := models.DateOf(time.Now())

	for i := 0; i < opts.listings; i++ {
		listing := &models.Listing{
			HostID:        hosts[rng.Intn(len(hosts))].ID,
			Name:          fmt.Sprintf("Property %d", i+1),
			Description:   "A comfortable place to stay in " + cities[i%len(cities)] + ".",
			Location:      cities[rng.Intn(len(cities))],
			PricePerNight: decimal.NewFromInt(int64(50 + rng.Intn(451))),
		}
		if err := db.CreateListing(ctx, listing); err != nil {
			return fmt.Errorf("failed to create listing: %w", err)
		}

		guest := guests[rng.Intn(len(guests))]
		start := today.AddDays(1 + rng.Intn(30))
		booking := &models.Booking{
			ListingID: listing.ID,
			UserID:    guest.ID,
			StartDate: start,
			EndDate:   start.AddDays(2 + rng.Intn(6)),
			Status:    statuses[rng.Intn(len(statuses))],
		}
		if err := db.CreateBooking(ctx, booking); err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		review := &models.Review{
			ListingID: listing.ID,
			UserID:    guest.ID,
			Rating:    models.MinRating + rng.Intn(models.MaxRating),
			Comment:   comments[rng.Intn(len(comments))],
		}
		if err := db.CreateReview(ctx, review); err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}
	}

	logger.Info("Database seeded",
		zap.Int("hosts", len(hosts)),
		zap.Int("guests", len(guests)),
		zap.String("admin", admin.Username),
		zap.Int("listings", opts.listings),
		zap.Int64("seed", opts.seed))
	return nil
}
