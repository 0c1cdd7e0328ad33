package domain

// Starter buffers for newly created rooms, keyed by language.
var starterSnippets = map[string]string{
	"java": `@RestController
@RequestMapping("/api/users")
public class UserController {

    @Autowired
    private UserService userService;

    @GetMapping("/{id}")
    public ResponseEntity<User> getUserById(@PathVariable Long id) {
        User user = userService.findById(id);
        if (user == null) {
            return ResponseEntity.notFound().build();
        }
        return ResponseEntity.ok(user);
    }
}`,
	"python": `from fastapi import FastAPI, HTTPException

app = FastAPI()
users_db = []

@app.get("/users")
async def get_users():
    return users_db

@app.get("/users/{user_id}")
async def get_user(user_id: int):
    user = next((u for u in users_db if u["id"] == user_id), None)
    if not user:
        raise HTTPException(status_code=404, detail="User not found")
    return user`,
	"javascript": `const express = require('express');
const router = express.Router();

router.get('/users', async (req, res) => {
    try {
        const users = await User.findAll({ where: { isActive: true } });
        res.json({ success: true, data: users });
    } catch (error) {
        res.status(500).json({ error: error.message });
    }
});

module.exports = router;`,
}

// StarterSnippet returns the seed buffer for a language.
func StarterSnippet(language string) (string, error) {
	code, ok := starterSnippets[language]
	if !ok {
		return "", ErrUnknownLanguage
	}
	return code, nil
}

func StarterLanguages() []string {
	return []string{"java", "javascript", "python"}
}
