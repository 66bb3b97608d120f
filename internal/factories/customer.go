package factories

import (
	"math/rand"

	"github.com/chrisdamba/deliverysim/internal/models"
	"github.com/jaswdr/faker"
)

type CustomerFactory struct {
	fake   faker.Faker
	rng    *rand.Rand
	config *models.Config
	nextID int
}

func NewCustomerFactory(config *models.Config, rng *rand.Rand) *CustomerFactory {
	return &CustomerFactory{
		fake:   faker.NewWithSeed(rng),
		rng:    rng,
		config: config,
	}
}

func (cf *CustomerFactory) CreateCustomer() *models.Customer {
	cf.nextID++
	return &models.Customer{
		ID:       cf.nextID,
		Name:     cf.fake.Person().Name(),
		Location: randomLocation(cf.rng, cf.config, cf.config.CustomerMargin),
	}
}
