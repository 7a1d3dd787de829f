package domain

// User is the slice of an account the order views need for display.
type User struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
}
