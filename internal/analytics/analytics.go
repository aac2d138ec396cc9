// Package analytics derives the admin dashboard snapshot from raw orders,
// products and users. Nothing here touches storage.
package analytics

import (
	"sort"
	"time"

	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
)

const (
	revenueWindowDays = 7
	topProductsLimit  = 5
	dateLayout        = "2006-01-02"
)

type Snapshot struct {
	DailyRevenue    []DailyRevenue  `json:"dailyRevenue"`
	TopProducts     []ProductSales  `json:"topProducts"`
	SalesByCategory []CategorySales `json:"salesByCategory"`
	Metrics         Metrics         `json:"metrics"`
}

// DailyRevenue carries revenue already fixed to two decimals.
type DailyRevenue struct {
	Date    string `json:"date"`
	Revenue string `json:"revenue"`
}

type ProductSales struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type CategorySales struct {
	Category string `json:"category"`
	Sales    int    `json:"sales"`
}

// Metrics carries money fixed to two decimals, like DailyRevenue.
type Metrics struct {
	TotalRevenue      string `json:"totalRevenue"`
	TotalOrders       int    `json:"totalOrders"`
	TotalUsers        int    `json:"totalUsers"`
	AverageOrderValue string `json:"averageOrderValue"`
}

func Compute(now time.Time, orders []models.Order, products []models.Product, users []models.User) Snapshot {
	return Snapshot{
		DailyRevenue:    dailyRevenue(now, orders),
		TopProducts:     topProducts(orders),
		SalesByCategory: salesByCategory(orders, products),
		Metrics:         metrics(orders, len(users)),
	}
}

// dailyRevenue covers the seven UTC calendar days ending on now, oldest
// first.
func dailyRevenue(now time.Time, orders []models.Order) []DailyRevenue {
	byDate := make(map[string]decimal.Decimal, revenueWindowDays)
	for _, o := range orders {
		date := o.CreatedAt.UTC().Format(dateLayout)
		byDate[date] = byDate[date].Add(o.TotalAmount)
	}

	today := now.UTC()
	out := make([]DailyRevenue, 0, revenueWindowDays)
	for i := revenueWindowDays - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format(dateLayout)
		out = append(out, DailyRevenue{
			Date:    date,
			Revenue: byDate[date].StringFixed(2),
		})
	}
	return out
}

func topProducts(orders []models.Order) []ProductSales {
	var sales []ProductSales
	index := make(map[int64]int)

	for _, o := range orders {
		for _, li := range o.Products {
			i, ok := index[li.ProductID]
			if !ok {
				i = len(sales)
				index[li.ProductID] = i
				sales = append(sales, ProductSales{ProductID: li.ProductID, Name: li.Name})
			}
			sales[i].Quantity += li.Quantity
			sales[i].Revenue = sales[i].Revenue.Add(li.Subtotal())
		}
	}

	sort.SliceStable(sales, func(a, b int) bool {
		return sales[a].Revenue.GreaterThan(sales[b].Revenue)
	})

	if len(sales) > topProductsLimit {
		sales = sales[:topProductsLimit]
	}
	if sales == nil {
		sales = []ProductSales{}
	}
	return sales
}

// salesByCategory sums ordered quantity per category in first-appearance
// order. Line items whose product no longer exists are skipped.
func salesByCategory(orders []models.Order, products []models.Product) []CategorySales {
	categoryOf := make(map[int64]string, len(products))
	for _, p := range products {
		categoryOf[p.ID] = p.Category
	}

	out := []CategorySales{}
	index := make(map[string]int)

	for _, o := range orders {
		for _, li := range o.Products {
			category, ok := categoryOf[li.ProductID]
			if !ok {
				continue
			}
			i, seen := index[category]
			if !seen {
				i = len(out)
				index[category] = i
				out = append(out, CategorySales{Category: category})
			}
			out[i].Sales += li.Quantity
		}
	}
	return out
}

func metrics(orders []models.Order, totalUsers int) Metrics {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.TotalAmount)
	}
	total = total.Round(2)

	average := decimal.Zero
	if len(orders) > 0 {
		average = total.Div(decimal.NewFromInt(int64(len(orders)))).Round(2)
	}

	return Metrics{
		TotalRevenue:      total.StringFixed(2),
		TotalOrders:       len(orders),
		TotalUsers:        totalUsers,
		AverageOrderValue: average.StringFixed(2),
	}
}
