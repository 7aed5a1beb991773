// Package palette сопоставляет цене вещи цвет ценника.
package palette

import "github.com/shopspring/decimal"

// Default присваивается ценам, для которых в таблице нет цвета.
const Default = "Gray"

var chart = map[int64]string{
	2:  "Lime",
	3:  "Pink",
	4:  "Orange",
	5:  "Indigo",
	6:  "Green",
	7:  "Blue",
	8:  "Violet",
	9:  "Red",
	10: "Yellow",
	11: "Royal Blue",
	12: "Light Blue",
	15: "Peach",
	20: "Teal",
}

// Classify округляет цену до целого и возвращает цвет ценника.
// Половина округляется от нуля, цены вне таблицы получают Default.
func Classify(price decimal.Decimal) string {
	if color, ok := chart[price.Round(0).IntPart()]; ok {
		return color
	}
	return Default
}

// Chart возвращает копию таблицы цен и цветов.
func Chart() map[int64]string {
	out := make(map[int64]string, len(chart))
	for price, color := range chart {
		out[price] = color
	}
	return out
}
