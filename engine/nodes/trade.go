package nodes

import (
	"fmt"
	"strconv"

	"github.com/nathoo/tilequest/engine/exec"
	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/instance"
	"github.com/nathoo/tilequest/types"
)

// wares lists the priced items of a merchant, one entry per name, in
// inventory order. Answers are 1-based indices into it.
func wares(merchant *instance.Instance) []instance.Item {
	var out []instance.Item
	seen := map[string]bool{}
	for _, it := range merchant.Sheet.Inventory.Items {
		if it.Price <= 0 || seen[it.Name] {
			continue
		}
		seen[it.Name] = true
		out = append(out, it)
	}
	return out
}

// sell runs for a player facing a merchant target. Without an answer it
// offers the merchant's wares as choices and returns Right. With an answer
// it buys one of the chosen item: Success when bought, Fail when the player
// cannot afford it, Bottom when the offer is gone or the player left.
func sell(ctx *exec.Context, n *graph.Node) graph.Connector {
	self := ctx.Self()
	merchant := ctx.Target()
	if merchant == nil {
		return graph.Fail
	}
	offer := wares(merchant)

	if self.Action == nil || self.Action.Answer == "" {
		if len(offer) == 0 {
			return graph.Fail
		}
		header := ctx.Text(n, "header")
		for i, it := range offer {
			c := types.Choice{
				Text:   fmt.Sprintf("%s (%d gold)", it.Name, it.Price),
				Answer: strconv.Itoa(i + 1),
				From:   merchant.Name,
			}
			if i == 0 {
				c.Header = header
			}
			self.Choices = append(self.Choices, c)
		}
		exit := ctx.Text(n, "exit")
		if exit == "" {
			exit = "Exit"
		}
		self.Choices = append(self.Choices, types.Choice{Text: exit, Answer: "0", From: merchant.Name})
		return graph.Right
	}

	pick, err := strconv.Atoi(self.Action.Answer)
	if err != nil || pick < 1 || pick > len(offer) {
		return graph.Bottom
	}
	item := offer[pick-1]
	if self.Sheet.Gold < item.Price {
		self.Say(types.MessageStatus, merchant.Name, "You cannot afford "+item.Name+".")
		return graph.Fail
	}
	if !merchant.Sheet.Inventory.Remove(item.Name, 1) {
		return graph.Bottom
	}
	item.Amount = 1
	self.Sheet.Gold -= item.Price
	merchant.Sheet.Gold += item.Price
	self.Sheet.Inventory.Add(item)
	self.Say(types.MessageStatus, merchant.Name, "You buy "+item.Name+".")
	return graph.Success
}
