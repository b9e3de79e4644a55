package domain

// Collectible is the shop record for one item id. Setters always replace
// the whole record.
type Collectible struct {
	Perk         uint32 `json:"perk"`
	Strength     uint32 `json:"strength"`
	PrimaryPrice Amount `json:"primary_price"`
	StablePrice  Amount `json:"stable_price"`
	ShopStock    uint64 `json:"shop_stock"`
}
