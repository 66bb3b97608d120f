package factories

import (
	"fmt"
	"math/rand"

	"github.com/chrisdamba/deliverysim/internal/models"
	"github.com/jaswdr/faker"
)

type RestaurantFactory struct {
	fake      faker.Faker
	rng       *rand.Rand
	config    *models.Config
	usedNames map[string]bool
	nextID    int
}

func NewRestaurantFactory(config *models.Config, rng *rand.Rand) *RestaurantFactory {
	return &RestaurantFactory{
		fake:      faker.NewWithSeed(rng),
		rng:       rng,
		config:    config,
		usedNames: make(map[string]bool),
	}
}

func (rf *RestaurantFactory) CreateRestaurant() *models.Restaurant {
	rf.nextID++
	return &models.Restaurant{
		ID:       rf.nextID,
		Name:     rf.createUniqueName(rf.fake.Company().Name()),
		Location: randomLocation(rf.rng, rf.config, rf.config.RestaurantMargin),
	}
}

func (rf *RestaurantFactory) CreateBatch(count int) []*models.Restaurant {
	restaurants := make([]*models.Restaurant, 0, count)
	for i := 0; i < count; i++ {
		restaurants = append(restaurants, rf.CreateRestaurant())
	}
	return restaurants
}

// restaurant names key per-restaurant statistics, so they must not repeat
func (rf *RestaurantFactory) createUniqueName(base string) string {
	name := base
	counter := 2
	for rf.usedNames[name] {
		name = fmt.Sprintf("%s #%d", base, counter)
		counter++
	}
	rf.usedNames[name] = true
	return name
}

// randomLocation places a point uniformly inside the map, keeping margin
// away from every edge when the map is large enough.
func randomLocation(rng *rand.Rand, config *models.Config, margin float64) models.Location {
	if 2*margin >= config.MapWidth || 2*margin >= config.MapHeight {
		margin = 0
	}
	return models.Location{
		X: margin + rng.Float64()*(config.MapWidth-2*margin),
		Y: margin + rng.Float64()*(config.MapHeight-2*margin),
	}
}
