package state

import "sync"

// Registry tracks the live dashboard connections of each user. Every
// connection owns its Store; the registry only relays which coin's holdings
// changed so a user's other tabs can refetch.
type Registry struct {
	peers    map[string]map[string]chan<- string // user id → connection id → notify
	mapMutex sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{peers: make(map[string]map[string]chan<- string)}
}

// Join registers a connection. notify receives coin slugs and is never closed
// by the registry.
func (r *Registry) Join(userID, connID string, notify chan<- string) {
	r.mapMutex.Lock()
	defer r.mapMutex.Unlock()

	conns := r.peers[userID]
	if conns == nil {
		conns = make(map[string]chan<- string)
		r.peers[userID] = conns
	}
	conns[connID] = notify
}

// Leave forgets a connection, and the user with their last one
func (r *Registry) Leave(userID, connID string) {
	r.mapMutex.Lock()
	defer r.mapMutex.Unlock()

	conns := r.peers[userID]
	if conns == nil {
		return
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.peers, userID)
	}
}

// Notify tells every other connection of the user that slug changed. A peer
// whose buffer is full misses the notice.
func (r *Registry) Notify(userID, fromConnID, slug string) int {
	r.mapMutex.Lock()
	defer r.mapMutex.Unlock()

	sent := 0
	for id, ch := range r.peers[userID] {
		if id == fromConnID {
			continue
		}
		select {
		case ch <- slug:
			sent++
		default:
		}
	}
	return sent
}

// Len returns the number of users with a live connection
func (r *Registry) Len() int {
	r.mapMutex.Lock()
	defer r.mapMutex.Unlock()
	return len(r.peers)
}
