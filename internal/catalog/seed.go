package catalog

import (
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

const unsplashSuffix = "?w=400&h=400&fit=crop"

// BaselineProducts is the catalog written to an empty store on first run.
func BaselineProducts() []Draft {
	drafts := []Draft{
		{
			Name:        "Camisa Esportiva Performance",
			Description: "Camisa leve e respirável para máximo desempenho.",
			Price:       decimal.RequireFromString("129.90"),
			Category:    enums.ProductCategoryShirts,
			Type:        enums.ProductTypeShirt,
			Stock:       50,
			ImageURL:    "https://images.unsplash.com/photo-1552901899-786020002810" + unsplashSuffix,
		},
		{
			Name:        "Tênis de Corrida UltraBoost",
			Description: "Conforto e amortecimento para longas distâncias.",
			Price:       decimal.RequireFromString("499.90"),
			Category:    enums.ProductCategoryFootwear,
			Type:        enums.ProductTypeFootwear,
			Stock:       30,
			ImageURL:    "https://images.unsplash.com/photo-1542291026-7eec264c27ff" + unsplashSuffix,
		},
		{
			Name:        "Bermuda de Treino Flex",
			Description: "Liberdade de movimento e conforto para seus treinos.",
			Price:       decimal.RequireFromString("99.90"),
			Category:    enums.ProductCategoryShorts,
			Type:        enums.ProductTypeShorts,
			Stock:       40,
			ImageURL:    "https://images.unsplash.com/photo-1591130493025-595069105e62" + unsplashSuffix,
		},
		{
			Name:        "Mochila Esportiva Adventure",
			Description: "Mochila espaçosa e resistente para suas aventuras.",
			Price:       decimal.RequireFromString("229.90"),
			Category:    enums.ProductCategoryAccessories,
			Type:        enums.ProductTypeAccessory,
			Stock:       20,
			ImageURL:    "https://images.unsplash.com/photo-1579391683922-f6758a09550b" + unsplashSuffix,
		},
	}
	for i := range drafts {
		drafts[i].Sizes = SizesForType(drafts[i].Type)
	}
	return drafts
}
