package buffer

import (
	"fmt"
	"testing"

	"github.com/m-mizutani/gt"
	"go-toolchat/pkg/models"
)

func TestFromMessages(t *testing.T) {
	var msgs []models.Message
	for i := 0; i < 50; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		msgs = append(msgs, models.Message{Role: role, Content: fmt.Sprint(i), CreatedAt: int64(i)})
		if i%5 == 0 {
			msgs = append(msgs, models.Message{Role: models.RoleTool, Content: "{}", CreatedAt: int64(i)})
		}
	}

	m := FromMessages(msgs, 40)
	gt.A(t, m.Items).Length(40)
	gt.Equal(t, m.Items[0].Content, "10")
	gt.Equal(t, m.Items[39].Content, "49")
	for _, item := range m.Items {
		gt.True(t, item.Role != models.RoleTool)
	}
}

func TestZeroSize(t *testing.T) {
	m := FromMessages([]models.Message{{Role: models.RoleUser, Content: "hi"}}, 0)
	gt.A(t, m.Items).Length(0)
}
