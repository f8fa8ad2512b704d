package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/config"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/logger"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
)

type MySQLStore struct {
	db  *sql.DB
	log *logger.Logger
}

func NewMySQLStore(cfg config.DatabaseConfig, log *logger.Logger) (*MySQLStore, error) {
	log.LogDatabase("CONNECT", "mysql", fmt.Sprintf("Connecting to MySQL at %s:%s", cfg.Host, cfg.Port))

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Error("DATABASE", "Failed to open MySQL connection: "+err.Error())
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := db.Ping(); err != nil {
		log.Error("DATABASE", "Failed to ping MySQL: "+err.Error())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &MySQLStore{db: db, log: log}

	if err := store.initTables(); err != nil {
		log.Error("DATABASE", "Failed to initialize tables: "+err.Error())
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	log.LogDatabase("SUCCESS", "mysql", "MySQL connection established and tables initialized")
	return store, nil
}

func (s *MySQLStore) initTables() error {
	s.log.LogDatabase("MIGRATE", "mysql", "Creating order tables if not exist")

	statements := []string{
		`CREATE TABLE IF NOT EXISTS parent_orders (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			total_price DECIMAL(10,2) NOT NULL,
			discount DECIMAL(10,2) NOT NULL DEFAULT 0,
			prize_id VARCHAR(36),
			status VARCHAR(32) NOT NULL,
			details TEXT,
			address TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_user_id (user_id),
			INDEX idx_status (status)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS bookings (
			id VARCHAR(36) PRIMARY KEY,
			customer_id VARCHAR(36) NOT NULL,
			provider_id VARCHAR(36) NOT NULL,
			provider_name VARCHAR(191),
			parent_order_id VARCHAR(36),
			delivery_order_id VARCHAR(36),
			status VARCHAR(32) NOT NULL,
			price DECIMAL(10,2) NOT NULL,
			discount DECIMAL(10,2) NOT NULL DEFAULT 0,
			items TEXT,
			appointment_date DATETIME,
			appointment_type VARCHAR(32),
			manual TINYINT(1) NOT NULL DEFAULT 0,
			updated_by VARCHAR(64),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_parent_order_id (parent_order_id),
			INDEX idx_provider_id (provider_id),
			INDEX idx_customer_id (customer_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS delivery_orders (
			id VARCHAR(36) PRIMARY KEY,
			order_number VARCHAR(32) NOT NULL,
			courier_id VARCHAR(36),
			supervisor_id VARCHAR(36),
			booking_id VARCHAR(36),
			status VARCHAR(32) NOT NULL,
			deleted TINYINT(1) NOT NULL DEFAULT 0,
			edited TINYINT(1) NOT NULL DEFAULT 0,
			source VARCHAR(16) NOT NULL DEFAULT 'app',
			order_type VARCHAR(16) NOT NULL DEFAULT 'app',
			items TEXT,
			delivery_fee DECIMAL(10,2) NOT NULL DEFAULT 0,
			modifications TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_courier_id (courier_id),
			INDEX idx_booking_id (booking_id),
			INDEX idx_status (status)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS user_prizes (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			prize_type VARCHAR(32) NOT NULL,
			value DECIMAL(10,2) NOT NULL,
			provider_id VARCHAR(36),
			is_used TINYINT(1) NOT NULL DEFAULT 0,
			won_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			used_at TIMESTAMP NULL,
			booking_id VARCHAR(36),
			INDEX idx_user_id (user_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS order_history (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			order_id VARCHAR(36) NOT NULL,
			status VARCHAR(32) NOT NULL,
			actor VARCHAR(64) NOT NULL,
			note TEXT,
			lat DOUBLE,
			lng DOUBLE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_order_id (order_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS couriers (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(191) NOT NULL,
			online TINYINT(1) NOT NULL DEFAULT 0,
			capacity INT
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	s.log.LogDatabase("SUCCESS", "mysql", "Order tables ready")
	return nil
}

// WithTx opens one transaction, runs fn against it and commits, or rolls back
// on any error or panic.
func (s *MySQLStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log.Error("DATABASE", "Failed to begin transaction: "+err.Error())
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = sqlTx.Rollback()
		}
	}()

	if err := fn(&mysqlTx{tx: sqlTx, log: s.log}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		s.log.Error("DATABASE", "Failed to commit transaction: "+err.Error())
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

func (s *MySQLStore) GetParentOrder(ctx context.Context, id string) (*models.ParentOrder, error) {
	return scanParentOrder(s.db.QueryRowContext(ctx, selectParentOrder+` WHERE id = ?`, id))
}

func (s *MySQLStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return scanBooking(s.db.QueryRowContext(ctx, selectBooking+` WHERE id = ?`, id))
}

func (s *MySQLStore) GetDeliveryOrder(ctx context.Context, id string) (*models.DeliveryOrder, error) {
	return scanDeliveryOrder(s.db.QueryRowContext(ctx, selectDeliveryOrder+` WHERE id = ?`, id))
}

func (s *MySQLStore) GetCourier(ctx context.Context, id string) (*models.Courier, error) {
	return scanCourier(s.db.QueryRowContext(ctx, `SELECT id, name, online, capacity FROM couriers WHERE id = ?`, id))
}

func (s *MySQLStore) CreateCourier(ctx context.Context, c *models.Courier) error {
	s.log.LogDatabase("INSERT", "couriers", fmt.Sprintf("Creating courier %s", c.ID))
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO couriers (id, name, online, capacity) VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.Online, c.Capacity)
	if err != nil {
		return fmt.Errorf("failed to create courier: %w", err)
	}
	return nil
}

func (s *MySQLStore) SetCourierOnline(ctx context.Context, id string, online bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE couriers SET online = ? WHERE id = ?`, online, id)
	if err != nil {
		return fmt.Errorf("failed to update courier: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MySQLStore) ActiveOrderCount(ctx context.Context, courierID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, activeOrderCountQuery+` AND courier_id = ?`, courierID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count active orders: %w", err)
	}
	return n, nil
}

func (s *MySQLStore) ListOrderHistory(ctx context.Context, orderID string) ([]*models.OrderHistory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, order_id, status, actor, note, lat, lng, created_at
		 FROM order_history WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order history: %w", err)
	}
	defer rows.Close()

	var entries []*models.OrderHistory
	for rows.Next() {
		e := &models.OrderHistory{}
		var note sql.NullString
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Status, &e.Actor, &note, &lat, &lng, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Note = note.String
		if lat.Valid && lng.Valid {
			e.Geo = &models.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *MySQLStore) HealthCheck() error {
	return s.db.Ping()
}

func (s *MySQLStore) Close() error {
	s.log.LogDatabase("CLOSE", "mysql", "Closing MySQL connection")
	return s.db.Close()
}

// mysqlTx implements Tx over one *sql.Tx. All ForUpdate getters append
// FOR UPDATE so the row stays locked until commit.
type mysqlTx struct {
	tx  *sql.Tx
	log *logger.Logger
}

const selectParentOrder = `SELECT id, user_id, total_price, discount, prize_id, status, details, address, created_at, updated_at FROM parent_orders`
const selectBooking = `SELECT id, customer_id, provider_id, provider_name, parent_order_id, delivery_order_id, status, price, discount, items, appointment_date, appointment_type, manual, updated_by, created_at, updated_at FROM bookings`
const selectDeliveryOrder = `SELECT id, order_number, courier_id, supervisor_id, booking_id, status, deleted, edited, source, order_type, items, delivery_fee, modifications, created_at, updated_at FROM delivery_orders`

const activeOrderCountQuery = `SELECT COUNT(*) FROM delivery_orders WHERE deleted = 0 AND status NOT IN ('delivered', 'cancelled')`

func (t *mysqlTx) CreateParentOrder(ctx context.Context, o *models.ParentOrder) error {
	t.log.LogDatabase("INSERT", "parent_orders", fmt.Sprintf("Creating parent order %s", o.ID))
	addr, err := json.Marshal(o.Address)
	if err != nil {
		return fmt.Errorf("failed to encode address: %w", err)
	}
	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO parent_orders (id, user_id, total_price, discount, prize_id, status, details, address, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.UserID, o.TotalPrice, o.Discount, o.PrizeID, o.Status, o.Details, string(addr), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create parent order: %w", err)
	}
	return nil
}

func (t *mysqlTx) CreateBooking(ctx context.Context, b *models.Booking) error {
	t.log.LogDatabase("INSERT", "bookings", fmt.Sprintf("Creating booking %s for provider %s", b.ID, b.ProviderID))
	items, err := json.Marshal(b.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}
	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO bookings (id, customer_id, provider_id, provider_name, parent_order_id, delivery_order_id, status, price, discount, items, appointment_date, appointment_type, manual, updated_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.CustomerID, b.ProviderID, b.ProviderName, b.ParentOrderID, b.DeliveryOrderID,
		b.Status, b.Price, b.Discount, string(items), b.AppointmentDate, b.AppointmentType,
		b.Manual, b.UpdatedBy, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (t *mysqlTx) CreateDeliveryOrder(ctx context.Context, d *models.DeliveryOrder) error {
	t.log.LogDatabase("INSERT", "delivery_orders", fmt.Sprintf("Creating delivery order %s", d.ID))
	items, err := json.Marshal(d.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}
	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO delivery_orders (id, order_number, courier_id, supervisor_id, booking_id, status, deleted, edited, source, order_type, items, delivery_fee, modifications, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.OrderNumber, d.CourierID, d.SupervisorID, d.BookingID, d.Status, d.Deleted,
		d.Edited, d.Source, d.OrderType, string(items), d.DeliveryFee, d.Modifications,
		d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create delivery order: %w", err)
	}
	return nil
}

func (t *mysqlTx) GetParentOrderForUpdate(ctx context.Context, id string) (*models.ParentOrder, error) {
	return scanParentOrder(t.tx.QueryRowContext(ctx, selectParentOrder+` WHERE id = ? FOR UPDATE`, id))
}

func (t *mysqlTx) UpdateParentOrderStatus(ctx context.Context, id, status string) error {
	t.log.LogDatabase("UPDATE", "parent_orders", fmt.Sprintf("Parent order %s -> %s", id, status))
	res, err := t.tx.ExecContext(ctx, `UPDATE parent_orders SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update parent order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *mysqlTx) GetBookingForUpdate(ctx context.Context, id string) (*models.Booking, error) {
	return scanBooking(t.tx.QueryRowContext(ctx, selectBooking+` WHERE id = ? FOR UPDATE`, id))
}

func (t *mysqlTx) UpdateBooking(ctx context.Context, id string, upd models.BookingUpdate) error {
	set := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	if upd.Status != nil {
		set = append(set, "status = ?")
		args = append(args, *upd.Status)
	}
	if upd.Price != nil {
		set = append(set, "price = ?")
		args = append(args, *upd.Price)
	}
	if upd.DeliveryOrderID != nil {
		set = append(set, "delivery_order_id = ?")
		args = append(args, *upd.DeliveryOrderID)
	}
	if upd.AppointmentDate != nil {
		set = append(set, "appointment_date = ?")
		args = append(args, *upd.AppointmentDate)
	}
	if upd.UpdatedBy != nil {
		set = append(set, "updated_by = ?")
		args = append(args, *upd.UpdatedBy)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)

	t.log.LogDatabase("UPDATE", "bookings", fmt.Sprintf("Updating booking %s", id))
	res, err := t.tx.ExecContext(ctx, `UPDATE bookings SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *mysqlTx) BookingFulfillments(ctx context.Context, parentID string) ([]models.BookingFulfillment, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT b.id, b.status, d.status
		 FROM bookings b
		 LEFT JOIN delivery_orders d ON d.id = b.delivery_order_id AND d.deleted = 0
		 WHERE b.parent_order_id = ?`, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking fulfillments: %w", err)
	}
	defer rows.Close()

	var out []models.BookingFulfillment
	for rows.Next() {
		var f models.BookingFulfillment
		var ds sql.NullString
		if err := rows.Scan(&f.BookingID, &f.Status, &ds); err != nil {
			return nil, fmt.Errorf("failed to scan fulfillment row: %w", err)
		}
		if ds.Valid {
			f.DeliveryStatus = &ds.String
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (t *mysqlTx) GetDeliveryOrderForUpdate(ctx context.Context, id string) (*models.DeliveryOrder, error) {
	return scanDeliveryOrder(t.tx.QueryRowContext(ctx, selectDeliveryOrder+` WHERE id = ? FOR UPDATE`, id))
}

func (t *mysqlTx) UpdateDeliveryOrder(ctx context.Context, id string, upd models.DeliveryUpdate) error {
	set := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	if upd.Status != nil {
		set = append(set, "status = ?")
		args = append(args, *upd.Status)
	}
	if upd.CourierID != nil {
		set = append(set, "courier_id = ?")
		args = append(args, *upd.CourierID)
	}
	if upd.Deleted != nil {
		set = append(set, "deleted = ?")
		args = append(args, *upd.Deleted)
	}
	if upd.Edited != nil {
		set = append(set, "edited = ?")
		args = append(args, *upd.Edited)
	}
	if upd.Modifications != nil {
		set = append(set, "modifications = ?")
		args = append(args, *upd.Modifications)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)

	t.log.LogDatabase("UPDATE", "delivery_orders", fmt.Sprintf("Updating delivery order %s", id))
	res, err := t.tx.ExecContext(ctx, `UPDATE delivery_orders SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update delivery order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *mysqlTx) GetUserPrizeForUpdate(ctx context.Context, id string) (*models.UserPrize, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT id, user_id, prize_type, value, provider_id, is_used, won_at, used_at, booking_id
		 FROM user_prizes WHERE id = ? FOR UPDATE`, id)

	p := &models.UserPrize{}
	var providerID, bookingID sql.NullString
	var usedAt sql.NullTime
	err := row.Scan(&p.ID, &p.UserID, &p.PrizeType, &p.Value, &providerID, &p.IsUsed, &p.WonAt, &usedAt, &bookingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user prize: %w", err)
	}
	if providerID.Valid {
		p.ProviderID = &providerID.String
	}
	if usedAt.Valid {
		p.UsedAt = &usedAt.Time
	}
	if bookingID.Valid {
		p.BookingID = &bookingID.String
	}
	return p, nil
}

func (t *mysqlTx) MarkPrizeUsed(ctx context.Context, prizeID, bookingID string) error {
	t.log.LogDatabase("UPDATE", "user_prizes", fmt.Sprintf("Marking prize %s used by booking %s", prizeID, bookingID))
	res, err := t.tx.ExecContext(ctx,
		`UPDATE user_prizes SET is_used = 1, used_at = ?, booking_id = ? WHERE id = ? AND is_used = 0`,
		time.Now(), bookingID, prizeID)
	if err != nil {
		return fmt.Errorf("failed to mark prize used: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *mysqlTx) AppendOrderHistory(ctx context.Context, e *models.OrderHistory) error {
	var lat, lng interface{}
	if e.Geo != nil {
		lat, lng = e.Geo.Lat, e.Geo.Lng
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO order_history (order_id, status, actor, note, lat, lng, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.OrderID, e.Status, e.Actor, e.Note, lat, lng, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append order history: %w", err)
	}
	return nil
}

func (t *mysqlTx) ListCouriers(ctx context.Context) ([]*models.Courier, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT id, name, online, capacity FROM couriers`)
	if err != nil {
		return nil, fmt.Errorf("failed to list couriers: %w", err)
	}
	defer rows.Close()

	var couriers []*models.Courier
	for rows.Next() {
		c := &models.Courier{}
		var capacity sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Name, &c.Online, &capacity); err != nil {
			return nil, fmt.Errorf("failed to scan courier row: %w", err)
		}
		if capacity.Valid {
			n := int(capacity.Int64)
			c.Capacity = &n
		}
		couriers = append(couriers, c)
	}
	return couriers, rows.Err()
}

func (t *mysqlTx) ActiveOrderCounts(ctx context.Context) (map[string]int, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT courier_id, COUNT(*)
		 FROM delivery_orders
		 WHERE courier_id IS NOT NULL AND deleted = 0 AND status NOT IN ('delivered', 'cancelled')
		 GROUP BY courier_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to count active orders: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (t *mysqlTx) AssignCourier(ctx context.Context, orderID, courierID, status string) error {
	t.log.LogDatabase("UPDATE", "delivery_orders", fmt.Sprintf("Assigning courier %s to order %s", courierID, orderID))
	res, err := t.tx.ExecContext(ctx,
		`UPDATE delivery_orders SET courier_id = ?, status = ? WHERE id = ?`,
		courierID, status, orderID)
	if err != nil {
		return fmt.Errorf("failed to assign courier: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Row scanners shared between the pooled connection and transactions.

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanParentOrder(row rowScanner) (*models.ParentOrder, error) {
	o := &models.ParentOrder{}
	var prizeID, details, address sql.NullString
	err := row.Scan(&o.ID, &o.UserID, &o.TotalPrice, &o.Discount, &prizeID, &o.Status, &details, &address, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan parent order: %w", err)
	}
	if prizeID.Valid {
		o.PrizeID = &prizeID.String
	}
	o.Details = details.String
	if address.Valid && address.String != "" {
		if err := json.Unmarshal([]byte(address.String), &o.Address); err != nil {
			return nil, fmt.Errorf("failed to decode address: %w", err)
		}
	}
	return o, nil
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	b := &models.Booking{}
	var parentID, deliveryID, providerName, items, apptType, updatedBy sql.NullString
	var apptDate sql.NullTime
	err := row.Scan(&b.ID, &b.CustomerID, &b.ProviderID, &providerName, &parentID, &deliveryID,
		&b.Status, &b.Price, &b.Discount, &items, &apptDate, &apptType, &b.Manual, &updatedBy,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}
	b.ProviderName = providerName.String
	if parentID.Valid {
		b.ParentOrderID = &parentID.String
	}
	if deliveryID.Valid {
		b.DeliveryOrderID = &deliveryID.String
	}
	if items.Valid && items.String != "" {
		if err := json.Unmarshal([]byte(items.String), &b.Items); err != nil {
			return nil, fmt.Errorf("failed to decode booking items: %w", err)
		}
	}
	if apptDate.Valid {
		b.AppointmentDate = &apptDate.Time
	}
	b.AppointmentType = apptType.String
	b.UpdatedBy = updatedBy.String
	return b, nil
}

func scanDeliveryOrder(row rowScanner) (*models.DeliveryOrder, error) {
	d := &models.DeliveryOrder{}
	var courierID, supervisorID, bookingID, items, mods sql.NullString
	err := row.Scan(&d.ID, &d.OrderNumber, &courierID, &supervisorID, &bookingID, &d.Status,
		&d.Deleted, &d.Edited, &d.Source, &d.OrderType, &items, &d.DeliveryFee, &mods,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan delivery order: %w", err)
	}
	if courierID.Valid {
		d.CourierID = &courierID.String
	}
	d.SupervisorID = supervisorID.String
	if bookingID.Valid {
		d.BookingID = &bookingID.String
	}
	if items.Valid && items.String != "" {
		if err := json.Unmarshal([]byte(items.String), &d.Items); err != nil {
			return nil, fmt.Errorf("failed to decode delivery items: %w", err)
		}
	}
	d.Modifications = mods.String
	return d, nil
}

func scanCourier(row rowScanner) (*models.Courier, error) {
	c := &models.Courier{}
	var capacity sql.NullInt64
	err := row.Scan(&c.ID, &c.Name, &c.Online, &capacity)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan courier: %w", err)
	}
	if capacity.Valid {
		n := int(capacity.Int64)
		c.Capacity = &n
	}
	return c, nil
}
