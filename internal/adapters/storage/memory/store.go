package memory

import (
	"maps"
	"sync"

	"pet-adoption/internal/domain/applications"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/domain/users"
)

// Store guarda todo en mapas detrás de un único mutex.
// Las escrituras multi-paso trabajan sobre una copia y solo se publican si no hay error.
type Store struct {
	mu sync.RWMutex
	d  *data
}

type data struct {
	animals      map[string]pets.Animal
	adopters     map[string]applications.Adopter
	applications map[string]applications.Application
	followUps    map[string]applications.FollowUp
	users        map[string]users.User
}

func NewStore() *Store {
	return &Store{d: &data{
		animals:      map[string]pets.Animal{},
		adopters:     map[string]applications.Adopter{},
		applications: map[string]applications.Application{},
		followUps:    map[string]applications.FollowUp{},
		users:        map[string]users.User{},
	}}
}

func (d *data) clone() *data {
	return &data{
		animals:      maps.Clone(d.animals),
		adopters:     maps.Clone(d.adopters),
		applications: maps.Clone(d.applications),
		followUps:    maps.Clone(d.followUps),
		users:        maps.Clone(d.users),
	}
}

// update corre fn sobre una copia y la publica si fn no falla.
func (s *Store) update(fn func(d *data) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.d.clone()
	if err := fn(next); err != nil {
		return err
	}
	s.d = next
	return nil
}

func (s *Store) read(fn func(d *data)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.d)
}

func (s *Store) Pets() pets.Repository { return &petRepo{s: s} }
func (s *Store) Applications() applications.Store { return &applicationStore{s: s} }
func (s *Store) Users() users.Repository { return &userRepo{s: s} }
