package handlers

import "LinkIM/service/chat"

// RegisterAll wires every inbound event the gateway understands.
func RegisterAll(d *chat.Dispatcher) {
	d.Register(NewAuthHandler())
	d.Register(NewSendMessageHandler())
	d.Register(NewTypingHandler())
	d.Register(NewMarkReadHandler())
}
