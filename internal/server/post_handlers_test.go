package server

import (
	"fmt"
	"net/url"
	"strconv"
	"testing"

	"yatube/internal/config"
	"yatube/internal/models"
	"yatube/internal/testutil"
	"yatube/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupValue(g *models.Group) string {
	return strconv.FormatUint(uint64(g.ID), 10)
}

func reloadPost(t *testing.T, env *testEnv, id uint) models.Post {
	t.Helper()
	var post models.Post
	require.NoError(t, env.db.First(&post, id).Error)
	return post
}

func TestCreatePost_AddsPostAndRedirectsHome(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	group := testutil.CreateGroup(t, env.db, "cats")

	var groupBefore int64
	require.NoError(t, env.db.Model(&models.Post{}).Where("group_id = ?", group.ID).Count(&groupBefore).Error)
	before := countPosts(t, env.db)

	resp := env.postForm(t, "/new/", url.Values{
		"text":  {"A brand new post"},
		"group": {groupValue(group)},
	}, env.sessionFor(t, author))

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Equal(t, before+1, countPosts(t, env.db))

	var groupAfter int64
	require.NoError(t, env.db.Model(&models.Post{}).Where("group_id = ?", group.ID).Count(&groupAfter).Error)
	assert.Equal(t, groupBefore+1, groupAfter)

	var stored models.Post
	require.NoError(t, env.db.Order("id DESC").First(&stored).Error)
	assert.Equal(t, "A brand new post", stored.Text)
	assert.Equal(t, author.ID, stored.AuthorID)
}

func TestCreatePost_WithoutGroup(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")

	resp := env.postForm(t, "/new/", url.Values{"text": {"No group here"}, "group": {""}}, env.sessionFor(t, author))

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	var stored models.Post
	require.NoError(t, env.db.First(&stored).Error)
	assert.Nil(t, stored.GroupID)
}

func TestCreatePost_MissingTextRerendersForm(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	before := countPosts(t, env.db)

	resp := env.postForm(t, "/new/", url.Values{"text": {"   "}}, env.sessionFor(t, author))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, before, countPosts(t, env.db))

	r := env.lastRender(t)
	assert.Equal(t, "posts/new", r.Name)
	assert.Equal(t, false, r.Binding["is_edit"])

	form, ok := r.Binding["form"].(fiber.Map)
	require.True(t, ok)
	errs, ok := form["errors"].(models.FieldErrors)
	require.True(t, ok)
	assert.Equal(t, []string{validation.MsgRequired}, errs["text"])
}

func TestCreatePost_UnknownGroupRerendersForm(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")

	resp := env.postForm(t, "/new/", url.Values{"text": {"hello"}, "group": {"999"}}, env.sessionFor(t, author))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(0), countPosts(t, env.db))
	form := env.lastRender(t).Binding["form"].(fiber.Map)
	assert.Contains(t, form["errors"].(models.FieldErrors), "group")
}

func TestNewPostForm_RendersEmptyFormWithGroups(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	testutil.CreateGroup(t, env.db, "cats")

	resp := env.get(t, "/new/", env.sessionFor(t, author))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	r := env.lastRender(t)
	assert.Equal(t, "posts/new", r.Name)
	assert.Equal(t, false, r.Binding["is_edit"])
	assert.Len(t, r.Binding["groups"], 1)
	assert.Equal(t, author.ID, r.Binding["user"].(*models.User).ID)
}

func TestAnonymousNewPostRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/new/")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login/?next=/new/", resp.Header.Get("Location"))

	resp = env.postForm(t, "/new/", url.Values{"text": {"sneaky"}})
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login/?next=/new/", resp.Header.Get("Location"))
	assert.Equal(t, int64(0), countPosts(t, env.db))
}

func TestIndex_PagesAreNewestFirstAndComplete(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	testutil.CreatePosts(t, env.db, author, nil, 23)
	total := countPosts(t, env.db)

	var seen []models.Post
	for number := 1; number <= 3; number++ {
		resp := env.get(t, fmt.Sprintf("/?page=%d", number))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		r := env.lastRender(t)
		assert.Equal(t, "index", r.Name)
		page := pageOf(t, r)
		assert.Equal(t, number, page["number"])
		assert.Equal(t, 3, page["num_pages"])
		assert.Equal(t, total, page["count"])

		items := itemsOf(t, r)
		assert.LessOrEqual(t, len(items), 10)
		seen = append(seen, items...)
	}

	assert.Len(t, seen, int(total))
	for i := 1; i < len(seen); i++ {
		assert.True(t, seen[i-1].PubDate.After(seen[i].PubDate),
			"post %d should be newer than post %d", seen[i-1].ID, seen[i].ID)
	}
}

func TestIndex_OutOfRangePageShowsLastPage(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	testutil.CreatePosts(t, env.db, author, nil, 12)

	resp := env.get(t, "/?page=99")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	page := pageOf(t, env.lastRender(t))
	assert.Equal(t, 2, page["number"])

	resp = env.get(t, "/?page=abc")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	page = pageOf(t, env.lastRender(t))
	assert.Equal(t, 1, page["number"])
}

func TestIndex_EmptyStore(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	r := env.lastRender(t)
	page := pageOf(t, r)
	assert.Equal(t, 1, page["number"])
	assert.Equal(t, int64(0), page["count"])
	assert.Empty(t, itemsOf(t, r))
	assert.Nil(t, r.Binding["user"])
}

func TestGroupPosts_OnlyListsThatGroup(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	one := testutil.CreateGroup(t, env.db, "test_slug_one")
	two := testutil.CreateGroup(t, env.db, "test_slug_two")

	resp := env.postForm(t, "/new/", url.Values{
		"text":  {"Post for the first group"},
		"group": {groupValue(one)},
	}, env.sessionFor(t, author))
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	var created models.Post
	require.NoError(t, env.db.First(&created).Error)

	containsCreated := func(items []models.Post) bool {
		for _, p := range items {
			if p.ID == created.ID {
				return true
			}
		}
		return false
	}

	env.get(t, "/")
	assert.True(t, containsCreated(itemsOf(t, env.lastRender(t))), "home listing")

	env.get(t, "/group/test_slug_one/")
	r := env.lastRender(t)
	assert.Equal(t, "group", r.Name)
	assert.Equal(t, one.ID, r.Binding["group"].(*models.Group).ID)
	items := itemsOf(t, r)
	require.Len(t, items, 1, "first group listing")
	assert.Equal(t, created.ID, items[0].ID)
	assert.Equal(t, int64(1), pageOf(t, r)["count"])

	env.get(t, "/group/test_slug_two/")
	r = env.lastRender(t)
	assert.Equal(t, two.ID, r.Binding["group"].(*models.Group).ID)
	assert.Len(t, itemsOf(t, r), 0, "second group listing")
	assert.Equal(t, int64(0), pageOf(t, r)["count"])
}

func TestGroupPosts_UnknownSlugIsNotFound(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/group/missing/")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "errors/404", env.lastRender(t).Name)
}

func TestProfile_PaginatesAuthorPosts(t *testing.T) {
	env := newTestEnv(t)
	bob := testutil.CreateUser(t, env.db, "bob")
	other := testutil.CreateUser(t, env.db, "alice")
	testutil.CreatePosts(t, env.db, bob, nil, 14)
	testutil.CreatePosts(t, env.db, other, nil, 3)

	resp := env.get(t, "/bob/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	r := env.lastRender(t)
	assert.Equal(t, "profile", r.Name)
	assert.Equal(t, bob.ID, r.Binding["author"].(*models.User).ID)
	assert.Equal(t, int64(14), r.Binding["posts_quantity"])
	assert.Len(t, itemsOf(t, r), 10)

	resp = env.get(t, "/bob/?page=2")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	r = env.lastRender(t)
	assert.Equal(t, int64(14), r.Binding["posts_quantity"])
	items := itemsOf(t, r)
	assert.Len(t, items, 4)
	for _, p := range items {
		assert.Equal(t, bob.ID, p.AuthorID)
	}
}

func TestProfile_UnknownUserIsNotFound(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/ghost/")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPostView_ShowsPostAndAuthorCount(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	posts := testutil.CreatePosts(t, env.db, author, nil, 3)
	target := posts[1]

	resp := env.get(t, postURL("leo", target.ID))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	r := env.lastRender(t)
	assert.Equal(t, "post", r.Name)
	assert.Equal(t, target.ID, r.Binding["post"].(*models.Post).ID)
	assert.Equal(t, "leo", r.Binding["author"].(*models.User).Username)
	assert.Equal(t, int64(3), r.Binding["posts_quantity"])
}

func TestPostView_UsernameMismatchIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	testutil.CreateUser(t, env.db, "anna")
	post := testutil.CreatePosts(t, env.db, author, nil, 1)[0]

	resp := env.get(t, postURL("anna", post.ID))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = env.get(t, postURL("leo", post.ID+100))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestEditPostForm_PrefilledForAuthor(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	group := testutil.CreateGroup(t, env.db, "cats")
	post := testutil.CreatePosts(t, env.db, author, group, 1)[0]

	resp := env.get(t, postURL("leo", post.ID)+"edit/", env.sessionFor(t, author))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	r := env.lastRender(t)
	assert.Equal(t, "posts/new", r.Name)
	assert.Equal(t, true, r.Binding["is_edit"])
	assert.Equal(t, post.ID, r.Binding["post"].(*models.Post).ID)

	values := r.Binding["form"].(fiber.Map)["values"].(fiber.Map)
	assert.Equal(t, post.Text, values["text"])
	assert.Equal(t, groupValue(group), values["group"])
}

func TestUpdatePost_AuthorChangesTextAndGroup(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	first := testutil.CreateGroup(t, env.db, "cats")
	second := testutil.CreateGroup(t, env.db, "dogs")
	post := testutil.CreatePosts(t, env.db, author, first, 1)[0]
	before := reloadPost(t, env, post.ID)

	resp := env.postForm(t, postURL("leo", post.ID)+"edit/", url.Values{
		"text":  {"Edited text"},
		"group": {groupValue(second)},
	}, env.sessionFor(t, author))

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, postURL("leo", post.ID), resp.Header.Get("Location"))

	after := reloadPost(t, env, post.ID)
	assert.Equal(t, "Edited text", after.Text)
	require.NotNil(t, after.GroupID)
	assert.Equal(t, second.ID, *after.GroupID)
	assert.Equal(t, before.AuthorID, after.AuthorID)
	assert.True(t, before.PubDate.Equal(after.PubDate))
	assert.Equal(t, int64(1), countPosts(t, env.db))
}

func TestUpdatePost_EmptyTextRerendersEditForm(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	post := testutil.CreatePosts(t, env.db, author, nil, 1)[0]

	resp := env.postForm(t, postURL("leo", post.ID)+"edit/", url.Values{"text": {""}}, env.sessionFor(t, author))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	r := env.lastRender(t)
	assert.Equal(t, "posts/new", r.Name)
	assert.Equal(t, true, r.Binding["is_edit"])
	assert.Equal(t, post.Text, reloadPost(t, env, post.ID).Text)
}

func TestUpdatePost_NonAuthorIsRedirectedWithoutChanges(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	intruder := testutil.CreateUser(t, env.db, "anna")
	post := testutil.CreatePosts(t, env.db, author, nil, 1)[0]
	editURL := postURL("leo", post.ID) + "edit/"

	resp := env.get(t, editURL, env.sessionFor(t, intruder))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, postURL("leo", post.ID), resp.Header.Get("Location"))

	resp = env.postForm(t, editURL, url.Values{"text": {"Hijacked"}}, env.sessionFor(t, intruder))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, postURL("leo", post.ID), resp.Header.Get("Location"))
	assert.Equal(t, post.Text, reloadPost(t, env, post.ID).Text)
}

func TestUpdatePost_AnonymousIsRedirectedToPostView(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	post := testutil.CreatePosts(t, env.db, author, nil, 1)[0]
	editURL := postURL("leo", post.ID) + "edit/"

	resp := env.get(t, editURL)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, postURL("leo", post.ID), resp.Header.Get("Location"))

	resp = env.postForm(t, editURL, url.Values{"text": {"Anonymous edit"}})
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, postURL("leo", post.ID), resp.Header.Get("Location"))
	assert.Equal(t, post.Text, reloadPost(t, env, post.ID).Text)
}

func TestUpdatePost_UnknownPostIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")

	resp := env.get(t, "/leo/42/edit/", env.sessionFor(t, author))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGroups_DirectoryCanBeSwitchedOff(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateGroup(t, env.db, "cats")

	resp := env.get(t, "/groups/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	groups := pageOf(t, env.lastRender(t))["items"].([]models.Group)
	require.Len(t, groups, 1)
	assert.Equal(t, "cats", groups[0].Slug)

	off := newTestEnv(t, func(c *config.Config) { c.FeatureFlags = "group_directory=off" })
	resp = off.get(t, "/groups/")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGroups_DirectoryIsPaged(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.PostsPerPage = 2 })
	for _, slug := range []string{"cats", "dogs", "owls"} {
		testutil.CreateGroup(t, env.db, slug)
	}

	env.get(t, "/groups/")
	page := pageOf(t, env.lastRender(t))
	assert.Len(t, page["items"], 2)
	assert.Equal(t, 2, page["num_pages"])

	env.get(t, "/groups/?page=9")
	page = pageOf(t, env.lastRender(t))
	assert.Equal(t, 2, page["number"])
	assert.Len(t, page["items"], 1)
}
