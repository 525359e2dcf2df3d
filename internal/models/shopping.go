// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// ShoppingItem is one aggregated line of a user's shopping list: every cart
// recipe's amounts for the same (name, unit) pair summed together.
type ShoppingItem struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	TotalAmount     int    `json:"total_amount"`
}
