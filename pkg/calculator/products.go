package calculator

import "prodreport/pkg/models"

// TopProductShare reports the largest product by value, its share of the
// total, and the client that took most of it. nil when records carry no product.
func TopProductShare(records []models.Record, value ValueFunc) *models.ProductShare {
	products := Aggregate(records, ByProduct, value, Options{TopN: 1})
	if len(products) == 0 {
		return nil
	}
	top := products[0]
	total := Sum(records, value)
	share := &models.ProductShare{
		Product: top.Key,
		Total:   top.Total,
		Rest:    total - top.Total,
	}

	var ofProduct []models.Record
	for _, r := range records {
		if r.Product == top.Key {
			ofProduct = append(ofProduct, r)
		}
	}
	if clients := Aggregate(ofProduct, ByClient, value, Options{TopN: 1}); len(clients) > 0 {
		share.TopClient = clients[0].Key
		share.TopClientTotal = clients[0].Total
	}

	if total != 0 {
		share.Share = round(top.Total/total*100, 1)
		share.TopClientShare = round(share.TopClientTotal/total*100, 1)
	}
	return share
}
