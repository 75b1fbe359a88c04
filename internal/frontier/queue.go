package frontier

// Entry is one unit of crawl work. Depth is the remaining depth budget fixed
// at enqueue time; Origin is the page the URL was discovered on ("" for seeds).
type Entry struct {
	URL    string
	Depth  int
	Origin string
}

// queue is an unsynchronized deque; Frontier owns the locking.
type queue struct {
	elements []Entry
}

func (q *queue) push(e Entry) {
	q.elements = append(q.elements, e)
}

// popFront pops the oldest entry (BFS).
func (q *queue) popFront() (Entry, bool) {
	if len(q.elements) == 0 {
		return Entry{}, false
	}
	e := q.elements[0]
	q.elements[0] = Entry{}
	q.elements = q.elements[1:]
	return e, true
}

// popBack pops the newest entry (DFS).
func (q *queue) popBack() (Entry, bool) {
	n := len(q.elements)
	if n == 0 {
		return Entry{}, false
	}
	e := q.elements[n-1]
	q.elements = q.elements[:n-1]
	return e, true
}

func (q *queue) size() int { return len(q.elements) }
