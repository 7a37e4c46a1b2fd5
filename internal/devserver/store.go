package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"fitnest/client/internal/models"
	"fitnest/client/internal/storage/sqlstore"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken  = errors.New("devserver: username already registered")
	ErrBadCredentials = errors.New("devserver: incorrect username or password")
	ErrNotFound       = errors.New("devserver: not found")
)

// OpenDB connects gorm to sqlite (path) or postgres (dsn).
func OpenDB(driver, path, dsn string) (*gorm.DB, error) {
	switch driver {
	case "", "sqlite":
		return sqlstore.Dial("sqlite", path)
	case "postgres":
		return sqlstore.Dial("postgres", dsn)
	}
	return nil, fmt.Errorf("devserver: unknown db driver %q", driver)
}

// Store persists accounts, listings and relayed messages.
type Store struct {
	DB       *gorm.DB
	hashCost int
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db, hashCost: bcrypt.DefaultCost}
}

// SetHashCost lowers the bcrypt cost; tests use bcrypt.MinCost.
func (s *Store) SetHashCost(cost int) { s.hashCost = cost }

func (s *Store) Migrate() error {
	return s.DB.AutoMigrate(&models.Account{}, &models.Listing{}, &models.ChatHistory{})
}

// CreateAccount registers a user with a bcrypt password hash.
func (s *Store) CreateAccount(ctx context.Context, acc *models.Account, password string) error {
	acc.Username = strings.TrimSpace(acc.Username)
	if acc.Username == "" || password == "" {
		return fmt.Errorf("devserver: username and password are required")
	}

	var n int64
	if err := s.DB.WithContext(ctx).Model(&models.Account{}).Where("username = ?", acc.Username).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("devserver: hash password: %w", err)
	}
	acc.PasswordHash = string(hash)
	return s.DB.WithContext(ctx).Create(acc).Error
}

// Authenticate checks a username/password pair.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*models.Account, error) {
	var acc models.Account
	err := s.DB.WithContext(ctx).Where("username = ?", username).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return &acc, nil
}

func (s *Store) Account(ctx context.Context, id int64) (*models.Account, error) {
	var acc models.Account
	err := s.DB.WithContext(ctx).First(&acc, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// OtherAccounts lists every account except id.
func (s *Store) OtherAccounts(ctx context.Context, id int64) ([]models.Account, error) {
	var out []models.Account
	err := s.DB.WithContext(ctx).Where("id <> ?", id).Order("id").Find(&out).Error
	return out, err
}

// SaveMessage stores a relayed message; gorm fills ID and CreatedAt.
func (s *Store) SaveMessage(ctx context.Context, h *models.ChatHistory) error {
	return s.DB.WithContext(ctx).Create(h).Error
}

// History returns the pair's messages oldest first and marks the ones
// addressed to self as read.
func (s *Store) History(ctx context.Context, self, partner int64) ([]models.ChatHistory, error) {
	var rows []models.ChatHistory
	err := s.DB.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", self, partner, partner, self).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Model(&models.ChatHistory{}).
		Where("sender_id = ? AND receiver_id = ? AND read_at IS NULL", partner, self).
		Update("read_at", time.Now()).Error
	return rows, err
}

// Conversations summarises every partner self has exchanged messages with,
// most recent first.
func (s *Store) Conversations(ctx context.Context, self int64, online func(int64) bool) ([]models.ConversationPreview, error) {
	var rows []models.ChatHistory
	err := s.DB.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", self, self).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	type summary struct {
		last   models.ChatHistory
		unread int
	}
	byPartner := make(map[int64]*summary)
	for _, r := range rows {
		partner := r.SenderID
		if partner == self {
			partner = r.ReceiverID
		}
		sum, ok := byPartner[partner]
		if !ok {
			sum = &summary{}
			byPartner[partner] = sum
		}
		sum.last = r
		if r.ReceiverID == self && r.ReadAt == nil {
			sum.unread++
		}
	}

	out := make([]models.ConversationPreview, 0, len(byPartner))
	for partner, sum := range byPartner {
		p := models.ConversationPreview{
			PartnerID:       partner,
			LastMessage:     sum.last.Content,
			LastMessageTime: sum.last.CreatedAt.UTC().Format(time.RFC3339),
			UnreadCount:     sum.unread,
		}
		if acc, err := s.Account(ctx, partner); err == nil {
			p.PartnerName = displayName(acc)
			p.PartnerImage = acc.AvatarURL
		}
		if online != nil {
			p.IsOnline = online(partner)
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return byPartner[out[i].PartnerID].last.ID > byPartner[out[j].PartnerID].last.ID
	})
	return out, nil
}

func (s *Store) Listings(ctx context.Context) ([]models.Listing, error) {
	var out []models.Listing
	err := s.DB.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}

func (s *Store) CreateListing(ctx context.Context, l *models.Listing, images, features []string) error {
	var err error
	if l.ImagesJSON, err = encodeList(images); err != nil {
		return err
	}
	if l.FeaturesJSON, err = encodeList(features); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Create(l).Error
}

func encodeList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	return string(b), err
}

func decodeList(s string) []string {
	var out []string
	if s == "" || json.Unmarshal([]byte(s), &out) != nil {
		return []string{}
	}
	return out
}

func displayName(acc *models.Account) string {
	if acc.FullName != "" {
		return acc.FullName
	}
	return acc.Username
}
