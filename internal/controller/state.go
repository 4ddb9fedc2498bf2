package controller

// State of the reconciliation driver
func (c *Controller) State() State {
	c.queueLock.Lock()
	defer c.queueLock.Unlock()

	if c.queue == nil {
		return State{}
	}
	return State{Active: true, QueueDepth: c.queue.Len()}
}
