package stripe

import (
	"errors"
	"fmt"

	"nitpickr-api/internal/domain/teams"
	"nitpickr-api/internal/domain/users"

	sdk "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/customer"
	"gorm.io/gorm"
)

const Provider = "stripe"

var ErrNoBillingContext = errors.New("no valid billing context found")

// Init sets the API key used by every Stripe call.
func Init(secretKey string) {
	sdk.Key = secretKey
}

func Configured() bool {
	return sdk.Key != ""
}

// CustomerAPI is the slice of the Stripe customer API the service uses.
type CustomerAPI interface {
	FindByEmail(email string) (id string, found bool, err error)
	Create(email, name string, metadata map[string]string) (id string, err error)
}

type stripeCustomers struct{}

func NewCustomerAPI() CustomerAPI {
	return stripeCustomers{}
}

func (stripeCustomers) FindByEmail(email string) (string, bool, error) {
	params := &sdk.CustomerListParams{Email: sdk.String(email)}
	params.Limit = sdk.Int64(1)
	it := customer.List(params)
	if it.Next() {
		return it.Customer().ID, true, nil
	}
	if err := it.Err(); err != nil {
		return "", false, err
	}
	return "", false, nil
}

func (stripeCustomers) Create(email, name string, metadata map[string]string) (string, error) {
	params := &sdk.CustomerParams{Metadata: metadata}
	if email != "" {
		params.Email = sdk.String(email)
	}
	if name != "" {
		params.Name = sdk.String(name)
	}
	c, err := customer.New(params)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

// Customers resolves and persists the Stripe customer of a user or a team.
type Customers struct {
	DB          *gorm.DB
	API         CustomerAPI
	UserBilling bool
}

// ForUser returns the user's customer id, reusing a Stripe customer with the
// same email before creating one.
func (c *Customers) ForUser(user *users.User) (string, error) {
	if user.BillingID != nil && *user.BillingID != "" {
		return *user.BillingID, nil
	}

	id, found, err := c.API.FindByEmail(user.Email)
	if err != nil {
		return "", fmt.Errorf("search stripe customer: %w", err)
	}
	if !found {
		id, err = c.API.Create(user.Email, user.Name, map[string]string{"userId": user.ID})
		if err != nil {
			return "", fmt.Errorf("create stripe customer: %w", err)
		}
	}

	if err := c.DB.Model(&users.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"billing_id":       id,
		"billing_provider": Provider,
	}).Error; err != nil {
		return "", fmt.Errorf("store billing id: %w", err)
	}
	user.BillingID = &id
	return id, nil
}

// ForTeam returns the team's customer id, creating it on first use.
func (c *Customers) ForTeam(team *teams.Team, email, name string) (string, error) {
	if team.BillingID != nil && *team.BillingID != "" {
		return *team.BillingID, nil
	}

	id, err := c.API.Create(email, name, map[string]string{"teamId": team.ID})
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}

	if err := c.DB.Model(&teams.Team{}).Where("id = ?", team.ID).Updates(map[string]interface{}{
		"billing_id":       id,
		"billing_provider": Provider,
	}).Error; err != nil {
		return "", fmt.Errorf("store billing id: %w", err)
	}
	team.BillingID = &id
	return id, nil
}

// BillingCustomerID bills the user when user billing is on, otherwise the team.
func (c *Customers) BillingCustomerID(user *users.User, team *teams.Team) (string, error) {
	if c.UserBilling && user != nil {
		return c.ForUser(user)
	}
	if team != nil {
		email, name := "", ""
		if user != nil {
			email, name = user.Email, user.Name
		}
		return c.ForTeam(team, email, name)
	}
	return "", ErrNoBillingContext
}
