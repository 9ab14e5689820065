// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"fmt"

	"github.com/uber/h3-go/v4"
)

// CellResolution is the H3 resolution posts are indexed at (~0.7 km² cells).
const CellResolution = 8

// Cell returns the H3 cell of p at CellResolution.
func (p Point) Cell() (int64, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), CellResolution)
	if err != nil {
		return 0, fmt.Errorf("error converting to h3 cell at res %d: %w", CellResolution, err)
	}

	return int64(cell), nil
}

// Neighborhood returns the cell containing p and every cell within k rings of it.
func (p Point) Neighborhood(k int) ([]int64, error) {
	origin, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), CellResolution)
	if err != nil {
		return nil, fmt.Errorf("error converting to h3 cell at res %d: %w", CellResolution, err)
	}

	disk, err := h3.GridDisk(origin, k)
	if err != nil {
		return nil, fmt.Errorf("computing grid disk: %w", err)
	}

	cells := make([]int64, 0, len(disk))
	for _, c := range disk {
		cells = append(cells, int64(c))
	}

	return cells, nil
}
