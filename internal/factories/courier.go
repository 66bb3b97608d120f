package factories

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/chrisdamba/deliverysim/internal/courier"
	"github.com/chrisdamba/deliverysim/internal/models"
	"github.com/chrisdamba/deliverysim/internal/routing"
	"github.com/jaswdr/faker"
)

type CourierFactory struct {
	fake   faker.Faker
	rng    *rand.Rand
	config *models.Config
	params courier.Params
	nextID int
}

func NewCourierFactory(config *models.Config, rng *rand.Rand) *CourierFactory {
	return &CourierFactory{
		fake:   faker.NewWithSeed(rng),
		rng:    rng,
		config: config,
		params: courier.ParamsFromConfig(config),
	}
}

// CreateCourier draws the courier type from the configured population
// shares.
func (cf *CourierFactory) CreateCourier() (*courier.Courier, error) {
	return cf.CreateCourierOfType(cf.pickType())
}

func (cf *CourierFactory) CreateCourierOfType(ct models.CourierTypeConfig) (*courier.Courier, error) {
	strategy, err := routing.ByName(ct.Routing)
	if err != nil {
		return nil, fmt.Errorf("courier type %s: %w", ct.Name, err)
	}
	cf.nextID++
	name := fmt.Sprintf("%s %s", cf.fake.Person().FirstName(), titleCase(ct.Name))
	location := randomLocation(cf.rng, cf.config, cf.config.CourierMargin)
	return courier.New(cf.nextID, name, ct.Name, ct.SpeedFor(cf.config.BaseCourierSpeed), location, strategy, cf.params), nil
}

func (cf *CourierFactory) CreateBatch(count int) ([]*courier.Courier, error) {
	couriers := make([]*courier.Courier, 0, count)
	for i := 0; i < count; i++ {
		c, err := cf.CreateCourier()
		if err != nil {
			return nil, err
		}
		couriers = append(couriers, c)
	}
	return couriers, nil
}

func (cf *CourierFactory) pickType() models.CourierTypeConfig {
	types := cf.config.CourierTypes
	u := cf.rng.Float64()
	var cumulative float64
	for _, ct := range types {
		cumulative += ct.Share
		if u < cumulative {
			return ct
		}
	}
	return types[len(types)-1]
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
