package models

// OrderEmployeeAssignment links an employee to an order they serve.
type OrderEmployeeAssignment struct {
	OrderID    int64 `gorm:"column:order_id;primaryKey;autoIncrement:false"`
	EmployeeID int64 `gorm:"column:employee_id;primaryKey;autoIncrement:false"`
}

func (OrderEmployeeAssignment) TableName() string {
	return "assigned_employees_to_orders"
}
