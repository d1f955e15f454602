package domain

import "github.com/zensushi/zen/pkg/money"

// MenuItem is a dish on the menu.
type MenuItem struct {
	ID    int         `json:"id"`
	Name  string      `json:"nome"`
	Price money.Cents `json:"preco"`
	Image string      `json:"imagem"`
}

// DefaultMenu returns the restaurant's fixed menu in display order.
func DefaultMenu() []MenuItem {
	return []MenuItem{
		{ID: 1, Name: "Sushi Especial", Price: 2500, Image: "comida2.jpg"},
		{ID: 2, Name: "Yakisoba", Price: 3000, Image: "comida4.jpg"},
		{ID: 3, Name: "Tempurá de Camarão", Price: 2800, Image: "comida5.jpg"},
		{ID: 4, Name: "Sashimi Premium", Price: 4000, Image: "comida6.jpg"},
		{ID: 5, Name: "Temaki de Salmão", Price: 2200, Image: "temaki_salmao.jpg"},
		{ID: 6, Name: "Uramaki Califórnia", Price: 3500, Image: "uramaki_california.jpg"},
		{ID: 7, Name: "Harumaki Vegetariano", Price: 1800, Image: "harumaki_vegetariano.jpg"},
		{ID: 8, Name: "Gyoza de Porco", Price: 2700, Image: "gyoza_porco.jpg"},
		{ID: 9, Name: "Missoshiru", Price: 1200, Image: "missoshiru.jpg"},
	}
}
