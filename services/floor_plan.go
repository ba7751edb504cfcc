package services

import (
	"strconv"

	"github.com/velvethour/venue-app/models"
	"gorm.io/gorm"
)

// Table statuses in the derived floor view.
const (
	TableAvailable = "available"
	TableReserved  = "reserved"
	TableSat       = "sat"
)

// FloorTableCount is the fixed size of the floor plan grid.
const FloorTableCount = 10

// TableStatus is one tile of the floor plan.
type TableStatus struct {
	Table      int    `json:"table"`
	Status     string `json:"status"`
	MemberName string `json:"member_name,omitempty"`
}

// FloorPlan is a stateless projection over the reservation store: table
// status is never written anywhere, only derived. Sat wins over reserved,
// reserved over available.
type FloorPlan struct {
	DB *gorm.DB
}

func NewFloorPlan(db *gorm.DB) *FloorPlan {
	return &FloorPlan{DB: db}
}

func (fp *FloorPlan) TableStatus(tableNum int) (TableStatus, error) {
	key := strconv.Itoa(tableNum)

	var sat models.Reservation
	err := fp.DB.Where("status = ? AND table_assigned = ?", models.ReservationSat, key).First(&sat).Error
	if err == nil {
		return TableStatus{Table: tableNum, Status: TableSat, MemberName: sat.MemberName}, nil
	}
	if err != gorm.ErrRecordNotFound {
		return TableStatus{}, err
	}

	var confirmed models.Reservation
	err = fp.DB.Where("status = ? AND table_assigned = ?", models.ReservationConfirmed, key).First(&confirmed).Error
	if err == nil {
		return TableStatus{Table: tableNum, Status: TableReserved, MemberName: confirmed.MemberName}, nil
	}
	if err != gorm.ErrRecordNotFound {
		return TableStatus{}, err
	}

	return TableStatus{Table: tableNum, Status: TableAvailable}, nil
}

// Snapshot returns the status of every table on the floor, 1..10.
func (fp *FloorPlan) Snapshot() ([]TableStatus, error) {
	out := make([]TableStatus, 0, FloorTableCount)
	for n := 1; n <= FloorTableCount; n++ {
		st, err := fp.TableStatus(n)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
