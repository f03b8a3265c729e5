package generator

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/vanshika/ecocycle/backend/internal/domain"
	"github.com/vanshika/ecocycle/backend/internal/service"
)

// Dataset contains the generated users and reports.
type Dataset struct {
	Users   []service.UserSeed   `json:"users"`
	Reports []service.ReportSeed `json:"reports"`
}

// Generator produces synthetic users and recycling reports.
type Generator struct {
	cfg       Config
	rand      *rand.Rand
	fragments fragments
	locations []string
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumUsers <= 0 {
		cfg.NumUsers = def.NumUsers
	}
	if cfg.NumReports < 0 {
		cfg.NumReports = def.NumReports
	}
	if cfg.ClaimChance < 0 {
		cfg.ClaimChance = def.ClaimChance
	}
	if cfg.SharedLocationChance < 0 {
		cfg.SharedLocationChance = def.SharedLocationChance
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:       cfg,
		rand:      rand.New(rand.NewSource(cfg.Seed)),
		fragments: defaultFragments(),
	}
}

// Generate synthesises users and reports. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	users := make([]service.UserSeed, g.cfg.NumUsers)
	for i := range users {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		first := pick(g.rand, g.fragments.first)
		last := pick(g.rand, g.fragments.last)
		users[i] = service.UserSeed{
			Email: fmt.Sprintf("%s.%s.%d@%s", strings.ToLower(first), strings.ToLower(last), i+1, pick(g.rand, g.fragments.domains)),
			Name:  first + " " + last,
		}
	}

	reports := make([]service.ReportSeed, g.cfg.NumReports)
	for i := range reports {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		reporter := g.rand.Intn(len(users))
		category := domain.Categories[g.rand.Intn(len(domain.Categories))]
		seed := service.ReportSeed{
			ReporterEmail:  users[reporter].Email,
			Location:       g.location(),
			Category:       string(category),
			ItemType:       pick(g.rand, g.fragments.items[category]),
			Amount:         g.amount(category),
			EstimatedValue: g.estimatedValue(),
		}
		if len(users) > 1 && g.rand.Float64() < g.cfg.ClaimChance {
			collector := g.rand.Intn(len(users) - 1)
			if collector >= reporter {
				collector++
			}
			seed.CollectorEmail = users[collector].Email
		}
		reports[i] = seed
	}

	return Dataset{Users: users, Reports: reports}, nil
}

func (g *Generator) location() string {
	if len(g.locations) > 0 && g.rand.Float64() < g.cfg.SharedLocationChance {
		return pick(g.rand, g.locations)
	}
	loc := fmt.Sprintf("%d %s %s, %s", g.rand.Intn(999)+1,
		pick(g.rand, g.fragments.streets),
		pick(g.rand, g.fragments.streetSuffix),
		pick(g.rand, g.fragments.cities))
	g.locations = append(g.locations, loc)
	return loc
}

func (g *Generator) amount(category domain.Category) string {
	switch category {
	case domain.CategoryClothes, domain.CategoryBooksPaper:
		return fmt.Sprintf("%d kg", 1+g.rand.Intn(20))
	default:
		return fmt.Sprintf("%d items", 1+g.rand.Intn(4))
	}
}

// estimatedValue renders a price range in the "low-high" form the points
// formula understands.
func (g *Generator) estimatedValue() string {
	low := (1 + g.rand.Intn(40)) * 50
	high := low + (1+g.rand.Intn(10))*50
	return fmt.Sprintf("%d-%d", low, high)
}

func pick(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}

type fragments struct {
	first        []string
	last         []string
	domains      []string
	streets      []string
	streetSuffix []string
	cities       []string
	items        map[domain.Category][]string
}

func defaultFragments() fragments {
	return fragments{
		first:        []string{"Amina", "John", "Wanjiru", "Priya", "Liu", "Maria", "Omar", "Sofia", "Kofi", "Emma", "Lucas", "Zara"},
		last:         []string{"Otieno", "Smith", "Chen", "Patel", "Garcia", "Khan", "Kim", "Mwangi", "Nguyen", "Silva", "Brown"},
		domains:      []string{"example.com", "mail.com", "ecocycle.dev"},
		streets:      []string{"Market", "Moi", "Ngong", "Riverside", "Park", "Cedar", "Kenyatta", "Station"},
		streetSuffix: []string{"St", "Ave", "Rd", "Way", "Lane"},
		cities:       []string{"Nairobi", "Mombasa", "Kisumu", "Nakuru", "Eldoret"},
		items: map[domain.Category][]string{
			domain.CategoryClothes:     {"cotton shirts", "denim jeans", "wool sweaters", "children's clothes"},
			domain.CategoryAppliances:  {"microwave", "refrigerator", "washing machine", "electric kettle"},
			domain.CategoryElectronics: {"laptop", "smartphone", "television", "router"},
			domain.CategoryBooksPaper:  {"textbooks", "newspapers", "magazines", "cardboard boxes"},
			domain.CategoryFurniture:   {"sofa", "dining chair", "bookshelf", "bed frame"},
		},
	}
}
