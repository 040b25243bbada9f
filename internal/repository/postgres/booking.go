package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
	"github.com/RaymondSalim/hms-sub002/internal/logger"
	"github.com/RaymondSalim/hms-sub002/internal/repository"

	"github.com/lib/pq"
)

type bookingRepository struct{}

func NewBookingRepository() repository.BookingRepository {
	return &bookingRepository{}
}

const bookingColumns = `
	b.id, b.room_id, b.tenant_id, r.location_id, b.start_date, b.duration_unit, b.duration_count,
	b.is_rolling, b.end_date, b.fee, b.status, b.created_at, b.updated_at
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		b        domain.Booking
		unit     sql.NullString
		count    sql.NullInt32
		endDate  sql.NullTime
		statusDB string
	)
	err := row.Scan(&b.ID, &b.RoomID, &b.TenantID, &b.LocationID, &b.StartDate, &unit, &count,
		&b.IsRolling, &endDate, &b.Fee, &statusDB, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if unit.Valid && count.Valid {
		b.Duration = &domain.BookingDuration{Unit: domain.DurationUnit(unit.String), Count: count.Int32}
	}
	b.EndDate = timePtr(endDate)
	b.Status = domain.BookingStatus(statusDB)
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, db repository.DBTX, booking *domain.Booking) error {
	logger.EnterMethod("bookingRepository.Create", "roomID", booking.RoomID, "tenantID", booking.TenantID)

	query := `
		INSERT INTO bookings (
			room_id, tenant_id, start_date, duration_unit, duration_count,
			is_rolling, end_date, fee, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`
	var unit, count interface{}
	if booking.Duration != nil {
		unit, count = string(booking.Duration.Unit), booking.Duration.Count
	}
	if booking.Status == "" {
		booking.Status = domain.BookingStatusUpcoming
	}
	now := time.Now()
	err := db.QueryRowContext(ctx, query,
		booking.RoomID, booking.TenantID, booking.StartDate, unit, count,
		booking.IsRolling, booking.EndDate, booking.Fee, booking.Status, now, now,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		logger.ExitMethodWithError("bookingRepository.Create", err, "roomID", booking.RoomID)
		return err
	}

	logger.ExitMethod("bookingRepository.Create", "bookingID", booking.ID)
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, db repository.DBTX, id int32) (*domain.Booking, error) {
	return r.get(ctx, db, id, "")
}

// LockByID is GetByID holding a row lock on the booking until the caller's
// transaction ends.
func (r *bookingRepository) LockByID(ctx context.Context, db repository.DBTX, id int32) (*domain.Booking, error) {
	return r.get(ctx, db, id, " FOR UPDATE OF b")
}

func (r *bookingRepository) get(ctx context.Context, db repository.DBTX, id int32, suffix string) (*domain.Booking, error) {
	logger.EnterMethod("bookingRepository.GetByID", "bookingID", id)

	query := `SELECT ` + bookingColumns + `
		FROM bookings b JOIN rooms r ON r.id = b.room_id
		WHERE b.id = $1` + suffix

	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if err != nil {
		logger.ExitMethodWithError("bookingRepository.GetByID", err, "bookingID", id)
		return nil, notFound(err, domain.ErrBookingNotFound)
	}

	logger.ExitMethod("bookingRepository.GetByID", "bookingID", id)
	return booking, nil
}

// ListActiveRolling returns rolling bookings that have started by asOf and
// have no end date before it.
func (r *bookingRepository) ListActiveRolling(ctx context.Context, db repository.DBTX, asOf time.Time) ([]domain.Booking, error) {
	logger.EnterMethod("bookingRepository.ListActiveRolling", "asOf", asOf)

	query := `SELECT ` + bookingColumns + `
		FROM bookings b JOIN rooms r ON r.id = b.room_id
		WHERE b.is_rolling = TRUE
		  AND b.status <> ALL($1)
		  AND b.start_date <= $2
		  AND (b.end_date IS NULL OR b.end_date >= $2)
		ORDER BY b.id
	`
	excluded := []string{string(domain.BookingStatusCancelled), string(domain.BookingStatusCompleted)}
	rows, err := db.QueryContext(ctx, query, pq.Array(excluded), asOf)
	if err != nil {
		logger.ExitMethodWithError("bookingRepository.ListActiveRolling", err)
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			logger.ExitMethodWithError("bookingRepository.ListActiveRolling", err)
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logger.ExitMethod("bookingRepository.ListActiveRolling", "count", len(bookings))
	return bookings, nil
}

func (r *bookingRepository) UpdateEndDate(ctx context.Context, db repository.DBTX, id int32, endDate *time.Time) error {
	logger.EnterMethod("bookingRepository.UpdateEndDate", "bookingID", id, "endDate", endDate)

	result, err := db.ExecContext(ctx, `UPDATE bookings SET end_date = $1, updated_at = $2 WHERE id = $3`, endDate, time.Now(), id)
	if err != nil {
		logger.ExitMethodWithError("bookingRepository.UpdateEndDate", err, "bookingID", id)
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrBookingNotFound
	}

	logger.ExitMethod("bookingRepository.UpdateEndDate", "bookingID", id)
	return nil
}

func (r *bookingRepository) CreateAddon(ctx context.Context, db repository.DBTX, addon *domain.BookingAddon) error {
	logger.EnterMethod("bookingRepository.CreateAddon", "bookingID", addon.BookingID, "addonID", addon.AddonID)

	query := `
		INSERT INTO booking_addons (booking_id, addon_id, start_date, end_date, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id
	`
	err := db.QueryRowContext(ctx, query, addon.BookingID, addon.AddonID, addon.StartDate, addon.EndDate, time.Now()).Scan(&addon.ID)
	if err != nil {
		logger.ExitMethodWithError("bookingRepository.CreateAddon", err, "bookingID", addon.BookingID)
		return err
	}

	logger.ExitMethod("bookingRepository.CreateAddon", "bookingAddonID", addon.ID)
	return nil
}

// ListAddons loads the booking's add-ons together with their pricing tiers.
func (r *bookingRepository) ListAddons(ctx context.Context, db repository.DBTX, bookingID int32) ([]domain.BookingAddon, error) {
	logger.EnterMethod("bookingRepository.ListAddons", "bookingID", bookingID)

	query := `
		SELECT ba.id, ba.booking_id, ba.addon_id, a.name, ba.start_date, ba.end_date
		FROM booking_addons ba JOIN addons a ON a.id = ba.addon_id
		WHERE ba.booking_id = $1
		ORDER BY ba.id
	`
	rows, err := db.QueryContext(ctx, query, bookingID)
	if err != nil {
		logger.ExitMethodWithError("bookingRepository.ListAddons", err, "bookingID", bookingID)
		return nil, err
	}
	defer rows.Close()

	var addons []domain.BookingAddon
	var addonIDs []int64
	for rows.Next() {
		var a domain.BookingAddon
		var endDate sql.NullTime
		if err := rows.Scan(&a.ID, &a.BookingID, &a.AddonID, &a.Name, &a.StartDate, &endDate); err != nil {
			return nil, err
		}
		a.EndDate = timePtr(endDate)
		addons = append(addons, a)
		addonIDs = append(addonIDs, int64(a.AddonID))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(addons) == 0 {
		logger.ExitMethod("bookingRepository.ListAddons", "count", 0)
		return addons, nil
	}

	pricing, err := r.listPricing(ctx, db, addonIDs)
	if err != nil {
		logger.ExitMethodWithError("bookingRepository.ListAddons", err, "bookingID", bookingID)
		return nil, fmt.Errorf("failed to load addon pricing: %w", err)
	}
	for i := range addons {
		addons[i].Pricing = pricing[addons[i].AddonID]
	}

	logger.ExitMethod("bookingRepository.ListAddons", "count", len(addons))
	return addons, nil
}

func (r *bookingRepository) listPricing(ctx context.Context, db repository.DBTX, addonIDs []int64) (map[int32][]domain.AddonPricing, error) {
	query := `
		SELECT addon_id, interval_start, interval_end, price, is_full_payment
		FROM addon_pricings
		WHERE addon_id = ANY($1)
		ORDER BY addon_id, interval_start
	`
	rows, err := db.QueryContext(ctx, query, pq.Array(addonIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pricing := make(map[int32][]domain.AddonPricing)
	for rows.Next() {
		var addonID int32
		var p domain.AddonPricing
		var intervalEnd sql.NullInt32
		if err := rows.Scan(&addonID, &p.IntervalStart, &intervalEnd, &p.Price, &p.IsFullPayment); err != nil {
			return nil, err
		}
		if intervalEnd.Valid {
			end := intervalEnd.Int32
			p.IntervalEnd = &end
		}
		pricing[addonID] = append(pricing[addonID], p)
	}
	return pricing, rows.Err()
}
