// Package graphql exposes a read-only view of the catalogue.
package graphql

import (
	"github.com/graphql-go/graphql"
	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/services"
	gql "github.com/shashiranjanraj/stockroom/pkg/graphql"
)

const maxProducts = 100

var variationType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Variation",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"sku":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"price":     &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"stock":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"productId": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
	},
})

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"name":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"description": &graphql.Field{Type: graphql.String},
		"category":    &graphql.Field{Type: graphql.String},
		"variations":  &graphql.Field{Type: graphql.NewList(variationType)},
	},
})

func variationView(v models.ProductVariation) map[string]interface{} {
	return map[string]interface{}{
		"id":        v.ID,
		"sku":       v.SKU,
		"price":     v.Price.InexactFloat64(),
		"stock":     v.Stock,
		"productId": v.ProductID,
	}
}

func productView(p models.Product) map[string]interface{} {
	variations := make([]map[string]interface{}, 0, len(p.Variations))
	for _, v := range p.Variations {
		variations = append(variations, variationView(v))
	}
	return map[string]interface{}{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"category":    p.Category,
		"variations":  variations,
	}
}

// NewSchema builds the catalogue schema over products.
func NewSchema(products *services.ProductService) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"variation": &graphql.Field{
				Type: variationType,
				Args: graphql.FieldConfigArgument{
					"sku": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sku, _ := p.Args["sku"].(string)
					v, err := products.Variation(p.Context, sku)
					if err != nil || v == nil {
						return nil, err
					}
					return variationView(*v), nil
				},
			},
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Args: graphql.FieldConfigArgument{
					"search": &graphql.ArgumentConfig{Type: graphql.String},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					search, _ := p.Args["search"].(string)
					limit, _ := p.Args["limit"].(int)
					if limit <= 0 || limit > maxProducts {
						limit = maxProducts
					}
					list, _, err := products.FindAll(p.Context, services.ProductListInput{
						PerPage: 1,
						Limit:   limit,
						Search:  search,
					})
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, 0, len(list))
					for _, prod := range list {
						out = append(out, productView(prod))
					}
					return out, nil
				},
			},
		},
	})
	return gql.NewSchema(query)
}
