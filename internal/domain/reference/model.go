package reference

type Species struct {
	ID   string
	Name string
}

type Breed struct {
	ID          string
	SpeciesID   string
	SpeciesName string
	Name        string
}

type Shelter struct {
	ID       string
	Name     string
	City     string
	Capacity int
	Phone    string
}

// DefaultShelterCapacity se usa cuando un refugio se crea sin capacidad explícita.
const DefaultShelterCapacity = 50
